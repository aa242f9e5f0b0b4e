package utils

import "crypto/rand"

// codeAlphabet holds the characters used in verification codes.  Uppercase
// letters and digits keep codes easy to read back from an email.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewVerificationCode returns a random code of n characters drawn from
// codeAlphabet using the crypto random source.
func NewVerificationCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
