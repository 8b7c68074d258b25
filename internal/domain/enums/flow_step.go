package enums

// FlowStep is the conversational step a participant's session is waiting on.
type FlowStep string

const (
	FlowStepIdle             FlowStep = "IDLE"
	FlowStepWaitingNickname  FlowStep = "WAITING_NICKNAME"
	FlowStepWaitingPhoto     FlowStep = "WAITING_PHOTO"
	FlowStepWaitingGameModes FlowStep = "WAITING_GAME_MODES"
	FlowStepWaitingSupport   FlowStep = "WAITING_SUPPORT"
	FlowStepWaitingLikeNote  FlowStep = "WAITING_LIKE_NOTE"
	FlowStepWaitingReply     FlowStep = "WAITING_SUPPORT_REPLY"
)
