package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("stock insuffisant pour %s", "Vase")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("commande introuvable")))
	// Une erreur non typée est traitée comme une erreur de persistance
	assert.Equal(t, KindPersistence, KindOf(errors.New("gocql: no hosts available")))
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("placement: %w", Validation("adresse de livraison incomplète"))
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindConflict))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := Persistence(cause, "erreur insertion commande")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "erreur insertion commande")
	assert.Contains(t, err.Error(), "timeout")
}
