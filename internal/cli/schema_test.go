package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "studyrag", Short: "root"}
	AddHelpJSONFlag(root)

	ask := &cobra.Command{Use: "ask <question>", Short: "Ask", Aliases: []string{"q"}, Run: func(*cobra.Command, []string) {}}
	ask.Flags().StringP("intent", "i", "factual", "Question intent")
	ask.Flags().String("session", "", "Session id")
	_ = ask.MarkFlagRequired("session")
	SetFlagEnum(ask, "intent", "factual", "summary")

	training := &cobra.Command{Use: "training", Short: "Training data"}
	export := &cobra.Command{Use: "export", Short: "Export", Run: func(*cobra.Command, []string) {}}
	training.AddCommand(export)

	hidden := &cobra.Command{Use: "secret", Hidden: true, Run: func(*cobra.Command, []string) {}}

	root.AddCommand(ask, training, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testTree())

	assert.Equal(t, "studyrag", schema.Name)
	require.Len(t, schema.Subcommands, 2)

	ask := schema.Subcommands[0]
	assert.Equal(t, "ask", ask.Name)
	assert.Equal(t, []string{"q"}, ask.Aliases)
	require.Len(t, ask.Flags, 2)

	intent := ask.Flags[0]
	assert.Equal(t, "intent", intent.Name)
	assert.Equal(t, "i", intent.Shorthand)
	assert.Equal(t, "factual", intent.Default)
	assert.Equal(t, []string{"factual", "summary"}, intent.Enum)
	assert.False(t, intent.Required)

	session := ask.Flags[1]
	assert.Equal(t, "session", session.Name)
	assert.True(t, session.Required)

	assert.Equal(t, "training", schema.Subcommands[1].Name)
	require.Len(t, schema.Subcommands[1].Subcommands, 1)
}

func TestFindCommand(t *testing.T) {
	root := testTree()

	assert.Equal(t, "export", FindCommand(root, []string{"training", "export"}).Name())
	assert.Equal(t, "ask", FindCommand(root, []string{"q"}).Name())
	assert.Equal(t, "studyrag", FindCommand(root, []string{"unknown"}).Name())
	assert.Equal(t, "training", FindCommand(root, []string{"training", "extra"}).Name())
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, FindCommand(testTree(), []string{"ask"})))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ask", decoded.Name)
	for _, f := range decoded.Flags {
		assert.NotEqual(t, "help-json", f.Name)
	}
}
