package domain

// User represents one registered account.
//
// RecordID is the document store's own id for the user document; ExternalID is
// the token issued by the identity provider. Both identify the same logical
// account: RecordID is the primary storage key, ExternalID the external handle.
type User struct {
	RecordID          string
	ExternalID        string
	Username          string
	FullName          string
	Email             string
	PrincipalInterest string
	ProfilePicture    *string
}
