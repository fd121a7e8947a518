//go:build integration

package integration

import (
	"testing"

	"currencyconverter/internal/testkit"
)

func TestMain(m *testing.M) {
	testkit.Run(m)
}
