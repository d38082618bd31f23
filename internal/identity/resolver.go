// Package identity resolves an SMS contact to a CRM customer record.
//
// Phone numbers are the least ambiguous identifier on an SMS channel, so the
// resolver searches phone first and only a unique phone hit is ever accepted
// without asking the customer. Address and name matches are progressively
// weaker and must never silently merge two different people's history; they
// always come back as confirmation candidates.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/boostxlresults/intellisend/internal/crm"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// Confidence tiers for a match.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// MatchedBy values record which search produced the match.
const (
	MatchedByPhone   = "phone"
	MatchedByAddress = "address"
	MatchedByName    = "name"
)

// Match is one candidate CRM customer for the contact.
type Match struct {
	CustomerID  string
	LocationID  string
	DisplayName string
	Confidence  string
	MatchedBy   string
}

// Resolution is the resolver's answer. AutoAcceptable is true only when the
// phone search returned exactly one customer; every other result requires an
// explicit customer confirmation before it is used.
type Resolution struct {
	Matches        []Match
	AutoAcceptable bool
}

// NoMatch reports whether the resolver found nothing usable.
func (r Resolution) NoMatch() bool { return len(r.Matches) == 0 }

// Input carries what the conversation has collected so far.
type Input struct {
	Phone   string
	Address string
	Name    string
}

// Resolver queries the CRM in fixed priority order: phone, then address,
// then name. Each tier short-circuits the ones below it.
type Resolver struct {
	crm    crm.Client
	logger *logging.Logger
}

// NewResolver builds a resolver. It panics if client is nil.
func NewResolver(client crm.Client, logger *logging.Logger) *Resolver {
	if client == nil {
		panic("identity: crm client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{crm: client, logger: logger}
}

// Resolve runs the tiered search. Address search runs only when phone found
// nothing and an address is known; name search only when address also found
// nothing and a name is known.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, in Input) (Resolution, error) {
	if strings.TrimSpace(in.Phone) != "" {
		customers, err := r.crm.SearchCustomersByPhone(ctx, tenantID, in.Phone)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: phone search: %w", err)
		}
		if len(customers) == 1 {
			return Resolution{
				Matches:        []Match{toMatch(customers[0], TierHigh, MatchedByPhone)},
				AutoAcceptable: true,
			}, nil
		}
		if len(customers) > 1 {
			r.logger.Info("multiple customers share phone, requiring confirmation",
				"tenant_id", tenantID, "count", len(customers))
			return Resolution{Matches: toMatches(customers, TierMedium, MatchedByPhone)}, nil
		}
	}

	if strings.TrimSpace(in.Address) != "" {
		customers, err := r.crm.SearchCustomersByAddress(ctx, tenantID, in.Address)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: address search: %w", err)
		}
		if len(customers) > 0 {
			return Resolution{Matches: toMatches(customers, TierMedium, MatchedByAddress)}, nil
		}
	}

	if strings.TrimSpace(in.Name) != "" {
		customers, err := r.crm.SearchCustomersByName(ctx, tenantID, in.Name)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: name search: %w", err)
		}
		if len(customers) > 0 {
			return Resolution{Matches: toMatches(customers, TierLow, MatchedByName)}, nil
		}
	}

	return Resolution{}, nil
}

func toMatch(c crm.Customer, tier, matchedBy string) Match {
	return Match{
		CustomerID:  c.ID,
		LocationID:  c.LocationID,
		DisplayName: c.Name,
		Confidence:  tier,
		MatchedBy:   matchedBy,
	}
}

func toMatches(customers []crm.Customer, tier, matchedBy string) []Match {
	matches := make([]Match, 0, len(customers))
	for _, c := range customers {
		matches = append(matches, toMatch(c, tier, matchedBy))
	}
	return matches
}
