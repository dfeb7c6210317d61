package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// AuthOrigin is how an account proves who it is. An account has at most one.
type AuthOrigin string

const (
	OriginNone     AuthOrigin = "none"
	OriginPassword AuthOrigin = "password"
	OriginGoogle   AuthOrigin = "google"
)
