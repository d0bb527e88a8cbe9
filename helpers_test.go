package account_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func richTextCode(t *testing.T, err error) string {
	t.Helper()
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected a rich error, got %T: %v", err, err)
	}
	return richErr.TextCode
}

func richCategory(t *testing.T, err error) goerrors.Category {
	t.Helper()
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected a rich error, got %T: %v", err, err)
	}
	return richErr.Category
}
