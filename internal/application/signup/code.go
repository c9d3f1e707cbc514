package signup

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// CodeTTL is how long a verification code can be redeemed.
const CodeTTL = 5 * time.Minute

const (
	codeMin  = 100000
	codeSpan = 900000 // codes fall in [100000, 999999]
)

// CodeGenerator produces a verification code and the instant it stops being valid.
type CodeGenerator interface {
	Generate(now time.Time) (code string, expiry time.Time, err error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func(now time.Time) (string, time.Time, error)

func (f CodeGeneratorFunc) Generate(now time.Time) (string, time.Time, error) { return f(now) }

// RandomCodes is the production generator.
var RandomCodes CodeGenerator = CodeGeneratorFunc(GenerateCode)

// GenerateCode returns a uniformly random 6-digit code and now+CodeTTL.
func GenerateCode(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification code: %w", err)
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10), now.Add(CodeTTL), nil
}
