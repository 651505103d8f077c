package service

import "kaizen/internal/models"

// Actor is the authenticated user performing an action.
type Actor struct {
	ID      uint
	IsStaff bool
}

// Action names a guarded operation.
type Action string

const (
	ActionUpdatePost    Action = "post:update"
	ActionDeletePost    Action = "post:delete"
	ActionSetPostStatus Action = "post:set_status"
	ActionManageSurvey  Action = "survey:manage"
	ActionUploadImage   Action = "image:upload"
	ActionUpdateComment Action = "comment:update"
	ActionDeleteComment Action = "comment:delete"
)

type rule struct {
	owner bool
	staff bool
}

var rules = map[Action]rule{
	ActionUpdatePost:    {owner: true},
	ActionDeletePost:    {owner: true, staff: true},
	ActionSetPostStatus: {staff: true},
	ActionManageSurvey:  {owner: true},
	ActionUploadImage:   {owner: true},
	ActionUpdateComment: {owner: true},
	ActionDeleteComment: {owner: true, staff: true},
}

var forbiddenMessages = map[Action]string{
	ActionUpdatePost:    "You can only update your own posts",
	ActionDeletePost:    "You can only delete your own posts",
	ActionSetPostStatus: "Only staff can change the status of a post",
	ActionManageSurvey:  "Only the author of the post can manage its survey",
	ActionUploadImage:   "You can only add images to your own posts",
	ActionUpdateComment: "You can only update your own comments",
	ActionDeleteComment: "You can only delete your own comments",
}

// Authorize is the single place ownership and role rules are decided. It
// returns a FORBIDDEN AppError when actor may not perform action on a
// resource owned by ownerID. Unknown actions are always denied.
func Authorize(actor Actor, action Action, ownerID uint) error {
	r, ok := rules[action]
	if ok && actor.ID != 0 {
		if r.owner && actor.ID == ownerID {
			return nil
		}
		if r.staff && actor.IsStaff {
			return nil
		}
	}
	msg, found := forbiddenMessages[action]
	if !found {
		msg = "You do not have permission to perform this action"
	}
	return models.NewForbiddenError(msg)
}
