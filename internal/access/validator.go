// Package access gates every cryptographic operation on trust-store
// membership. Validation failures are always fatal to the command; there is
// no partial authorization.
package access

import (
	goerrors "errors"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/identity"
)

// ValidateRecipients checks that every resolved recipient and the acting
// operator exist and verify in the trust store. Recipients not yet verified
// are verified on the spot, so callers that skipped VerifyAll still get
// derived certificate records for everyone they are about to encrypt to.
func ValidateRecipients(recipients []string, store *identity.Store, operator string) error {
	for _, recipient := range recipients {
		if err := store.VerifyIdentity(recipient); err != nil {
			var unknown pkerrors.UnknownIdentityError
			if goerrors.As(err, &unknown) {
				return pkerrors.UnknownRecipientError{Recipient: recipient}
			}
			return err
		}
	}

	if _, ok := store.Identity(operator); !ok {
		return pkerrors.UnknownIdentityError{UID: operator}
	}
	return nil
}
