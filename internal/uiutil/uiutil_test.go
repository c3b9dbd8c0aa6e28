package uiutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	t.Parallel()

	msg := ReportError(errors.New("page 3: decode failed"))()
	require.Equal(t, InfoMsg{Type: InfoTypeError, Msg: "page 3: decode failed"}, msg)

	require.Equal(t, InfoMsg{Type: InfoTypeInfo, Msg: "copied"}, ReportInfo("copied")())
	require.Equal(t, InfoMsg{Type: InfoTypeWarn, Msg: "careful"}, ReportWarn("careful")())
	require.Equal(t, InfoMsg{Type: InfoTypeSuccess, Msg: "done"}, ReportSuccess("done")())
}
