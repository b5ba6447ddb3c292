package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/promokeeper/internal/rules"
	"github.com/solatis/promokeeper/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRunEval(t *testing.T) {
	engine := rules.NewEngine(nil)
	ctx := rules.EvalContext{Total: 350, Category: "Food", Quantity: 2, Shipping: 15}

	var buf bytes.Buffer
	require.NoError(t, runEval(&buf, engine, "PERCENT 10 IF TOTAL > 200", ctx))
	want := `tokens: PERCENT NUMBER(10) IF TOTAL GT NUMBER(200) EOF
ast:    PERCENT 10 IF TOTAL > 200
result: {"applied":true,"discount":35,"freeShipping":false,"message":"10% off"}
`
	assert.Equal(t, want, buf.String())
}

func TestRunEvalParseError(t *testing.T) {
	var buf bytes.Buffer
	err := runEval(&buf, rules.NewEngine(nil), "PERCENT IF TOTAL > 200", rules.EvalContext{Total: 1})

	var parseErr *rules.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, buf.String(), "error:  parse error at token 1: expected NUMBER, got IF")
	assert.NotContains(t, buf.String(), "result:")
}

func TestRunEvalRejectsNegative(t *testing.T) {
	err := runEval(&bytes.Buffer{}, rules.NewEngine(nil), "MINUS 5", rules.EvalContext{Total: -1})
	assert.Error(t, err)
}

func TestEvalCommand(t *testing.T) {
	out, err := execute(t, "eval", `FREE_SHIP IF CATEGORY == "Food"`, "--total", "20", "--category", "Food", "--shipping", "7.5")
	require.NoError(t, err)
	assert.Contains(t, out, `STRING(Food)`)
	assert.Contains(t, out, `"freeShipping":true`)
	assert.Contains(t, out, `"discount":7.5`)
}

func TestCatalogCommands(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "promo.db")

	out, err := execute(t, "--db-url", url, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "001_initial_schema.sql")
	assert.Contains(t, out, "pending")

	_, err = execute(t, "--db-url", url, "migrate", "up")
	require.NoError(t, err)

	out, err = execute(t, "--db-url", url, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")

	_, err = execute(t, "--db-url", url, "coupon", "add", "--storefront", "store-1", "--code", "BIG", "--rule", "PERCENT 10 IF TOTAL > 200", "--description", "big spender")
	require.NoError(t, err)

	_, err = execute(t, "--db-url", url, "coupon", "add", "--storefront", "store-1", "--code", "BAD", "--rule", "PERCENT IF TOTAL > 200")
	require.Error(t, err)

	_, err = execute(t, "--db-url", url, "coupon", "add", "--storefront", "store-1", "--code", "BIG", "--rule", "MINUS 1")
	assert.ErrorIs(t, err, types.ErrCouponExists)

	_, err = execute(t, "--db-url", url, "coupon", "disable", "--storefront", "store-1", "--code", "BIG")
	require.NoError(t, err)

	out, err = execute(t, "--db-url", url, "coupon", "list", "--storefront", "store-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "BIG")
	assert.Contains(t, lines[1], "disabled")
	assert.Contains(t, lines[1], "PERCENT 10 IF TOTAL > 200")
}

func TestCouponImport(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "promo.db")
	_, err := execute(t, "--db-url", url, "migrate", "up")
	require.NoError(t, err)

	_, err = execute(t, "--db-url", url, "coupon", "add", "--storefront", "store-1", "--code", "SHIP", "--rule", "FREE_SHIP")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "coupons.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`coupons:
  - code: BIG
    rule: PERCENT 10 IF TOTAL > 200
    description: big spender
  - code: SHIP
    rule: FREE_SHIP IF QUANTITY >= 3
`), 0o644))

	out, err := execute(t, "--db-url", url, "coupon", "import", "--storefront", "store-1", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1, skipped 1")

	out, err = execute(t, "--db-url", url, "coupon", "list", "--storefront", "store-1")
	require.NoError(t, err)
	assert.Contains(t, out, "PERCENT 10 IF TOTAL > 200")
	assert.NotContains(t, out, "QUANTITY")
}

func TestLoadCouponFile(t *testing.T) {
	engine := rules.NewEngine(nil)

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"valid", "coupons:\n  - code: A\n    rule: MINUS 5\n", ""},
		{"empty", "coupons: []\n", ""},
		{"bad rule", "coupons:\n  - code: A\n    rule: MINUS\n", "rule does not compile"},
		{"missing code", "coupons:\n  - rule: MINUS 5\n", "code is required"},
		{"duplicate", "coupons:\n  - code: A\n    rule: MINUS 5\n  - code: A\n    rule: MINUS 6\n", "duplicate code"},
		{"unknown field", "coupons:\n  - code: A\n    rule: MINUS 5\n    amount: 3\n", "failed to decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadCouponFile(strings.NewReader(tt.doc), engine)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvFile(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "promo.db")
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PK_DB_URL="+url+"\n"), 0o600))

	// t.Setenv restores PK_DB_URL afterwards; godotenv skips variables already set
	t.Setenv("PK_DB_URL", "")
	require.NoError(t, os.Unsetenv("PK_DB_URL"))
	dbURL = ""
	t.Cleanup(func() { envFile = "" })

	out, err := execute(t, "--env-file", envPath, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "001_initial_schema.sql")

	_, err = execute(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "migrate", "status")
	require.Error(t, err)
}

func TestKeysCreate(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "promo.db")
	t.Setenv("PK_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

	_, err := execute(t, "--db-url", url, "migrate", "up")
	require.NoError(t, err)

	out, err := execute(t, "--db-url", url, "keys", "create", "--storefront", "store-1")
	require.NoError(t, err)
	assert.Contains(t, out, "api_key:    pk-v1-0123456789abcdef0123456789abcdef-")
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("PK_DB_URL", "")
	dbURL = ""
	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PK_DB_URL")
}
