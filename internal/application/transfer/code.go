package transfer

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// CodeLength dígitos del código de confirmación.
const CodeLength = 6

// CodeGenerator produce códigos de confirmación de un solo uso.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator códigos decimales de CodeLength dígitos desde crypto/rand.
type RandomCodeGenerator struct{}

var codeSpace = big.NewInt(1_000_000)

// Generate devuelve un código con ceros a la izquierda, p. ej. "004217".
func (RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generar código de confirmación: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// codesMatch comparación en tiempo constante.
func codesMatch(stored *string, supplied string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) == 1
}
