package domain

type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor identifies who performed an audited action: a known user, or the
// system itself when no authenticated user is available.
type Actor struct {
	Kind   ActorKind `json:"kind"`
	UserID int64     `json:"userId,omitempty"`
}

func UserActor(userID int64) Actor {
	return Actor{Kind: ActorUser, UserID: userID}
}

func SystemActor() Actor {
	return Actor{Kind: ActorSystem}
}
