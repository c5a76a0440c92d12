package annotation

import (
	"github.com/hafizlab/alfurqan/core/access"
)

// QueryIntent is what a listing query asks for. It is part of the
// visibility decision: pending content surfaces only when a reviewer
// explicitly requests the review queue.
type QueryIntent int

const (
	// IntentBrowse is a general listing: everything the viewer may see.
	IntentBrowse QueryIntent = iota
	// IntentOwn lists only the viewer's own content, whatever its state.
	IntentOwn
	// IntentCommunity lists only community-visible (approved) content.
	IntentCommunity
	// IntentReviewQueue lists pending content for Ulama review.
	IntentReviewQueue
)

// VisibleTo is the single visibility predicate for community-facing
// content. It decides whether content in the given state, owned or not
// by the viewer, surfaces for a query with the given intent.
func VisibleTo(v Visibility, ownerMatch bool, viewer access.Role, intent QueryIntent) bool {
	switch intent {
	case IntentOwn:
		return ownerMatch
	case IntentCommunity:
		return v.Approved()
	case IntentReviewQueue:
		return access.HasPermission(viewer, access.Ulama) && v == VisibilityCommunityPending
	default: // IntentBrowse
		return v.Approved() || ownerMatch
	}
}
