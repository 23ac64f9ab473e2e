package model

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	InputTypeDocument = "document"
	InputTypeQuery    = "query"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
