package security

import "account-service/pkg/utils"

// BcryptHasher hashes passwords with a fixed bcrypt cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	return utils.HashPassword(password, h.cost)
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	return utils.CheckPassword(hash, password)
}
