package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.EXPECT().View(mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path(defaultReportsDir) && args.MutantID == ""
	})).Return(nil).Once()

	_, err := execute(t, newViewCmd(), "view")
	require.NoError(t, err)
}

func TestViewCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.EXPECT().View(mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path("./reports-dir")
	})).Return(nil).Once()

	_, err := execute(t, newViewCmd(), "view", "--output", "./reports-dir")
	require.NoError(t, err)
}

func TestViewCmd_SingleMutant(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.EXPECT().View(mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.MutantID == "1a2b3c" && args.CoverageDB == "cov.db"
	})).Return(nil).Once()

	_, err := execute(t, newViewCmd(), "view", "--mutant", "1a2b3c", "--coverage-db", "cov.db")
	require.NoError(t, err)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	withMockWorkflow(t)

	_, err := execute(t, newViewCmd(), "view", "./custom-reports")
	require.Error(t, err)
}
