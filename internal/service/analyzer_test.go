package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextAnalyzer_EmptyText(t *testing.T) {
	a := NewTextAnalyzer()

	assert.Equal(t, a.Analyze(""), a.Analyze("   \n\t "))
	features := a.Analyze("")
	assert.Zero(t, features.Sentences.Mean)
	assert.Zero(t, features.TechnicalDensity)
	assert.False(t, features.HasCode)
}

func TestTextAnalyzer_SentenceStats(t *testing.T) {
	features := NewTextAnalyzer().Analyze("Hello world. This is a test.")

	assert.InDelta(t, 13.5, features.Sentences.Mean, 1e-9)
	assert.Equal(t, 15, features.Sentences.Max)
	assert.Equal(t, 12, features.Sentences.Min)
	assert.InDelta(t, 1.5, features.Sentences.StdDev, 1e-9)

	assert.InDelta(t, 28.0, features.Paragraphs.Mean, 1e-9)
	assert.Equal(t, 28, features.Paragraphs.Max)
}

func TestTextAnalyzer_DecimalPointDoesNotEndSentence(t *testing.T) {
	features := NewTextAnalyzer().Analyze("Version 1.5 is out.")

	assert.Equal(t, 19, features.Sentences.Max)
	assert.Equal(t, 19, features.Sentences.Min)
}

func TestTextAnalyzer_CJKSentences(t *testing.T) {
	features := NewTextAnalyzer().Analyze("你好。世界！")

	assert.InDelta(t, 3.0, features.Sentences.Mean, 1e-9)
	assert.Equal(t, 3, features.Sentences.Max)
	assert.Equal(t, 3, features.Sentences.Min)
}

func TestTextAnalyzer_Paragraphs(t *testing.T) {
	features := NewTextAnalyzer().Analyze("abc\n\nabcdefg\n  \n")

	assert.InDelta(t, 5.0, features.Paragraphs.Mean, 1e-9)
	assert.Equal(t, 7, features.Paragraphs.Max)
	assert.Equal(t, 3, features.Paragraphs.Min)
}

func TestTextAnalyzer_TechnicalDensity(t *testing.T) {
	features := NewTextAnalyzer().Analyze("The API server uses HTTP.")

	assert.Equal(t, 3, features.TechnicalTerms)
	assert.InDelta(t, 0.6, features.TechnicalDensity, 1e-9)
}

func TestTextAnalyzer_TechnicalTermsMatchWholeWords(t *testing.T) {
	features := NewTextAnalyzer().Analyze("Tipping the classic serverless ship")

	assert.Zero(t, features.TechnicalTerms)
}

func TestTextAnalyzer_CodeBlocks(t *testing.T) {
	text := "Intro\n\n```go\nfmt.Println(1)\n```\n"
	features := NewTextAnalyzer().Analyze(text)

	assert.True(t, features.HasCode)
	assert.Equal(t, 1, features.CodeBlocks)
	assert.InDelta(t, 24.0/32.0, features.CodeRatio, 1e-9)
}

func TestTextAnalyzer_UnclosedFenceIsNotCode(t *testing.T) {
	features := NewTextAnalyzer().Analyze("```go\nfmt.Println(1)\n")

	assert.False(t, features.HasCode)
	assert.Zero(t, features.CodeRatio)
}

func TestTextAnalyzer_AbbreviationsDoNotEndSentences(t *testing.T) {
	text := "Dr. Smith met Mr. Jones at 5 p.m. on a wet evening in Washington D.C. to go over " +
		"the long and tangled history of the regional railway network, its many branch lines, " +
		"and the stations that closed after the war."

	features := NewTextAnalyzer().Analyze(text)

	assert.Greater(t, features.Sentences.Mean, 100.0)
}

func TestTextAnalyzer_BlankLineEndsSentence(t *testing.T) {
	features := NewTextAnalyzer().Analyze("Heading without stop\n\nBody line.")

	assert.Equal(t, 20, features.Sentences.Max)
	assert.Equal(t, 10, features.Sentences.Min)
}
