package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

func TestListCmd_PassesPathsAndOperators(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.EXPECT().List(mock.Anything, mock.MatchedBy(func(args domain.ListArgs) bool {
		return assert.ObjectsAreEqual([]m.Path{"./internal/..."}, args.Paths) &&
			assert.ObjectsAreEqual([]string{"boolean"}, args.Operators) &&
			assert.ObjectsAreEqual([]string{"_gen\\.go$"}, args.Exclude)
	})).Return(nil).Once()

	_, err := execute(t, newListCmd(), "list", "--operators", "boolean", "-x", "_gen\\.go$", "./internal/...")
	require.NoError(t, err)
}

func TestListCmd_DefaultsToAllOperators(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.EXPECT().List(mock.Anything, mock.MatchedBy(func(args domain.ListArgs) bool {
		return len(args.Paths) == 0 && len(args.Operators) == 0
	})).Return(nil).Once()

	_, err := execute(t, newListCmd(), "list")
	require.NoError(t, err)
}
