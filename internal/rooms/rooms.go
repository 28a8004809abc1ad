// Package rooms is the single place room names are derived. Join and emit
// call sites must go through it so the addressing scheme cannot drift.
package rooms

// Admins is the shared broadcast room every authenticated administrator
// joins.
const Admins = "admins"

const userPrefix = "user:"

// ForUser returns the room carrying one user's conversation. Both the user's
// own connections and admin replies targeting that user are delivered here.
func ForUser(userID string) string {
	return userPrefix + userID
}
