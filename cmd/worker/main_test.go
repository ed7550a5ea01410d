package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coopsales/console/internal/app"
	_ "github.com/coopsales/console/internal/testing/guard"
)

func TestMainSkipsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	main()
}
