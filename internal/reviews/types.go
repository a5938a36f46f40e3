package reviews

import "time"

// VoteKind is a review vote direction.
type VoteKind string

const (
	VoteHelpful    VoteKind = "helpful"
	VoteNotHelpful VoteKind = "not-helpful"
)

// Valid reports whether the vote kind is one of the two known directions.
func (k VoteKind) Valid() bool {
	return k == VoteHelpful || k == VoteNotHelpful
}

// Review is one customer review on a product. Vote slices hold the user ids
// that voted each way; a user appears in at most one of them.
type Review struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName,omitempty"`
	Rating          int       `json:"rating"`
	Title           string    `json:"title,omitempty"`
	Comment         string    `json:"comment"`
	HelpfulVotes    []string  `json:"helpfulVotes"`
	NotHelpfulVotes []string  `json:"notHelpfulVotes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// applyVote returns the vote arrays after userID votes in the given
// direction: a repeat vote retracts it, an opposite vote switches it, and a
// first vote records it.
func applyVote(helpful, notHelpful []string, userID string, kind VoteKind) (newHelpful, newNotHelpful []string) {
	hasHelpful := contains(helpful, userID)
	hasNotHelpful := contains(notHelpful, userID)

	switch kind {
	case VoteHelpful:
		if hasHelpful {
			return remove(helpful, userID), notHelpful
		}
		if hasNotHelpful {
			return append(cloneIDs(helpful), userID), remove(notHelpful, userID)
		}
		return append(cloneIDs(helpful), userID), notHelpful
	case VoteNotHelpful:
		if hasNotHelpful {
			return helpful, remove(notHelpful, userID)
		}
		if hasHelpful {
			return remove(helpful, userID), append(cloneIDs(notHelpful), userID)
		}
		return helpful, append(cloneIDs(notHelpful), userID)
	}
	return helpful, notHelpful
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
