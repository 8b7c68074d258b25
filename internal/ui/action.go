package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind identifies an inline button. Callback data is encoded as
// "kind" or "kind:param" and must stay within telegram's 64 byte limit.
type ActionKind string

const (
	ActionMenu        ActionKind = "menu"
	ActionMyProfile   ActionKind = "my_profile"
	ActionEditProfile ActionKind = "edit_profile"
	ActionFind        ActionKind = "find"
	ActionFound       ActionKind = "found"
	ActionShop        ActionKind = "shop"
	ActionReferral    ActionKind = "referral"
	ActionSupport     ActionKind = "support"
	ActionLike        ActionKind = "like"
	ActionLikeNote    ActionKind = "like_note"
	ActionDislike     ActionKind = "dislike"
	ActionBuy         ActionKind = "buy"
	ActionApprove     ActionKind = "approve"
	ActionReject      ActionKind = "reject"
	ActionReply       ActionKind = "reply"
	ActionCancel      ActionKind = "cancel"
)

type Action struct {
	Kind     ActionKind
	TargetID int64
	PromoID  string
}

func (a Action) Encode() string {
	switch a.Kind {
	case ActionLike, ActionLikeNote, ActionDislike, ActionApprove, ActionReject, ActionReply:
		return string(a.Kind) + ":" + strconv.FormatInt(a.TargetID, 10)
	case ActionBuy:
		return string(a.Kind) + ":" + a.PromoID
	default:
		return string(a.Kind)
	}
}

func ParseAction(data string) (Action, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Action{}, fmt.Errorf("empty callback data")
	}

	kind, param, hasParam := strings.Cut(data, ":")
	action := Action{Kind: ActionKind(kind)}

	switch action.Kind {
	case ActionMenu, ActionMyProfile, ActionEditProfile, ActionFind, ActionFound,
		ActionShop, ActionReferral, ActionSupport, ActionCancel:
		if hasParam {
			return Action{}, fmt.Errorf("action %q takes no parameter", kind)
		}
		return action, nil
	case ActionLike, ActionLikeNote, ActionDislike, ActionApprove, ActionReject, ActionReply:
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil || id <= 0 {
			return Action{}, fmt.Errorf("action %q has invalid target %q", kind, param)
		}
		action.TargetID = id
		return action, nil
	case ActionBuy:
		param = strings.TrimSpace(param)
		if param == "" {
			return Action{}, fmt.Errorf("buy action without promo id")
		}
		action.PromoID = param
		return action, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", kind)
	}
}

func target(kind ActionKind, id int64) string {
	return Action{Kind: kind, TargetID: id}.Encode()
}
