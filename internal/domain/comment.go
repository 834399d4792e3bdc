package domain

// Comment is the single comment record attached to an account number.
// Account is the natural key: at most one comment document exists per account.
type Comment struct {
	Account string
	Name    string
	Comment string
}
