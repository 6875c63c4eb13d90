package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"fundrecon/logger"
)

func TestMain(m *testing.M) {
	logger.SetLogPath(filepath.Join(os.TempDir(), "fundrecon-cli-test.log"))
	os.Exit(m.Run())
}

func executeCommand(rootCmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLI_Help(t *testing.T) {
	output, err := executeCommand(newRootCommand(), "--help")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(output, "Usage:") {
		t.Errorf("Expected usage output in --help, got: %s", output)
	}
}

func TestCLI_Version(t *testing.T) {
	output, err := executeCommand(newRootCommand(), "version")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(output, "fundrecon") {
		t.Errorf("Expected version output to contain 'fundrecon', got: %s", output)
	}
}

func TestCLI_CompareRequiresTwoFiles(t *testing.T) {
	_, err := executeCommand(newRootCommand(), "compare", "only-one.csv")
	if err == nil {
		t.Fatal("Expected an error for a single positional argument")
	}
}

func TestCLI_CompareEndToEnd(t *testing.T) {
	dir := t.TempDir()
	internal := filepath.Join(dir, "internal.csv")
	fund := filepath.Join(dir, "fund.csv")
	out := filepath.Join(dir, "report.json")

	if err := os.WriteFile(internal, []byte("contract_id,face_value\nK1,100.0\nK2,200.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fund, []byte("contract_id,face_value\nK1,100.0\nK2,999.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := executeCommand(newRootCommand(),
		"compare", internal, fund,
		"--key", "contract_id",
		"--format", "json",
		"--output", out)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Expected report file, got %v", err)
	}
	if !json.Valid(data) {
		t.Error("Expected valid JSON report")
	}
	if !strings.Contains(string(data), "numeric_difference") {
		t.Error("Expected a numeric difference in the report")
	}
}

func TestParseMapping(t *testing.T) {
	mapping, err := parseMapping([]string{"contract_id=NumeroContrato", "amount=ValorFace"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if mapping["contract_id"] != "NumeroContrato" || mapping["amount"] != "ValorFace" {
		t.Errorf("Unexpected mapping: %v", mapping)
	}

	if _, err := parseMapping([]string{"no-equals"}); err == nil {
		t.Error("Expected an error for a malformed mapping")
	}

	mapping, err = parseMapping(nil)
	if err != nil || mapping != nil {
		t.Errorf("Expected nil mapping for no pairs, got %v, %v", mapping, err)
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"internal.csv=reports/fund_a.csv"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 1 || pairs[0].internal != "internal.csv" || pairs[0].fund != "reports/fund_a.csv" {
		t.Errorf("Unexpected pairs: %+v", pairs)
	}
	if pairs[0].name != "fund_a" {
		t.Errorf("Expected pair name fund_a, got %s", pairs[0].name)
	}

	if _, err := parsePairs([]string{"missing-separator"}); err == nil {
		t.Error("Expected an error for a malformed pair")
	}
}

func TestDelimiterRune(t *testing.T) {
	if delimiterRune("") != ',' {
		t.Error("Expected comma for empty delimiter")
	}
	if delimiterRune(";") != ';' {
		t.Error("Expected semicolon")
	}
	if delimiterRune("\\t") != '\t' || delimiterRune("tab") != '\t' {
		t.Error("Expected tab")
	}
}
