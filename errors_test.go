package dispatcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyWrapsPlainError(t *testing.T) {
	err := Classify(KindDBExecute, errors.New("boom"))
	var ce *ClassifiedError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, KindDBExecute, ce.Kind)
}

func TestClassifyPreservesAlreadyClassifiedKind(t *testing.T) {
	original := Classify(KindSSHAuth, errors.New("bad key"))
	reclassified := Classify(KindInternal, original)
	var ce *ClassifiedError
	assert.True(t, errors.As(reclassified, &ce))
	assert.Equal(t, KindSSHAuth, ce.Kind, "Classify must not override an existing classification")
}

func TestClassifyNilIsNil(t *testing.T) {
	assert.Nil(t, Classify(KindInternal, nil))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, kindOf(errors.New("plain")))
}

func TestKindOfExtractsClassification(t *testing.T) {
	err := Classify(KindTimeout, errors.New("slow"))
	assert.Equal(t, KindTimeout, kindOf(err))
}
