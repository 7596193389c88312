package domain

// GameStatus is the game's current phase in the turn/invitation handshake.
// Completion is signaled separately by GameOver plus a winner, never by a
// status value.
type GameStatus string

const (
	StatusStarted              GameStatus = "STARTED"
	StatusRestarted            GameStatus = "RESTARTED"
	StatusJoinedGame           GameStatus = "JOINED_GAME"
	StatusAvailableForOpponent GameStatus = "AVAILABLE_FOR_OPPONENT"
	StatusWaitingForRandomPlayerInvitationAcceptance GameStatus = "WAITING_FOR_RANDOM_PLAYER_INVITATION_ACCEPTANCE"
	StatusWaitingForFriendInvitationAcceptance       GameStatus = "WAITING_FOR_FRIEND_INVITATION_ACCEPTANCE"
	StatusWaitingForNextQ GameStatus = "WAITING_FOR_NEXT_Q"
)

func (s GameStatus) valid() bool {
	switch s {
	case StatusStarted, StatusRestarted, StatusJoinedGame,
		StatusAvailableForOpponent,
		StatusWaitingForRandomPlayerInvitationAcceptance,
		StatusWaitingForFriendInvitationAcceptance,
		StatusWaitingForNextQ:
		return true
	}
	return false
}

// randomOnly statuses belong to the matchmaking handshake, friendOnly to the
// invitation handshake. A game must never observe the other strategy's
// statuses.
func (s GameStatus) randomOnly() bool {
	return s == StatusAvailableForOpponent || s == StatusWaitingForRandomPlayerInvitationAcceptance
}

func (s GameStatus) friendOnly() bool {
	return s == StatusWaitingForFriendInvitationAcceptance
}

// Joinable reports whether a second player may enter the game in this phase.
func (s GameStatus) Joinable() bool {
	return s == StatusAvailableForOpponent ||
		s == StatusWaitingForRandomPlayerInvitationAcceptance ||
		s == StatusWaitingForFriendInvitationAcceptance
}
