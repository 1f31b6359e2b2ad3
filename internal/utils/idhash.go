package utils

import "golang.org/x/crypto/bcrypt"

// HashIdentityProof hashes the identity document number presented at
// check-in.  Only the hash is persisted; the raw number never touches
// the database.
func HashIdentityProof(document string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(document), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyIdentityProof checks a presented document number against a
// stored hash.
func VerifyIdentityProof(hash, document string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(document)) == nil
}
