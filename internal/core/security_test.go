package core

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalDirectives() map[Directive][]string {
	return map[Directive][]string{
		DefaultSrc: {srcSelf},
		ObjectSrc:  {},
	}
}

func TestDefaultDirectives(t *testing.T) {
	d, err := DefaultDirectives()
	require.NoError(t, err)

	csp := d.String()
	assert.True(t, strings.HasPrefix(csp, "default-src 'self' https://js.stripe.com"), csp)
	assert.Contains(t, csp, "object-src 'none'")
	assert.Contains(t, csp, "script-src 'self' blob: data: gap: "+NoncePlaceholder)
	assert.Contains(t, csp, "frame-ancestors 'self'")
	assert.Empty(t, d.Sources(ObjectSrc))
	assert.True(t, d.Has(ObjectSrc))
}

func TestNewDirectiveSet_Dedup(t *testing.T) {
	src := minimalDirectives()
	src[ImgSrc] = []string{srcSelf, " data: ", srcSelf, "data:"}

	d, err := NewDirectiveSet(src)
	require.NoError(t, err)
	assert.Equal(t, []string{srcSelf, "data:"}, d.Sources(ImgSrc))
	assert.Equal(t, "default-src 'self'; img-src 'self' data:; object-src 'none'", d.String())

	// источники копируются, внешний срез набор не меняет
	got := d.Sources(ImgSrc)
	got[0] = "evil.com"
	assert.Equal(t, srcSelf, d.Sources(ImgSrc)[0])
	assert.Nil(t, d.Sources(FontSrc))
	assert.False(t, d.Has(FontSrc))
}

func TestNewDirectiveSet_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[Directive][]string)
	}{
		{"unknown category", func(m map[Directive][]string) { m["sandbox-src"] = []string{srcSelf} }},
		{"empty default-src", func(m map[Directive][]string) { m[DefaultSrc] = nil }},
		{"missing object-src", func(m map[Directive][]string) { delete(m, ObjectSrc) }},
		{"object-src allowed", func(m map[Directive][]string) { m[ObjectSrc] = []string{srcSelf} }},
		{"semicolon", func(m map[Directive][]string) { m[ScriptSrc] = []string{"https://a.com; script-src *"} }},
		{"comma", func(m map[Directive][]string) { m[ImgSrc] = []string{"a.com,b.com"} }},
		{"space", func(m map[Directive][]string) { m[ImgSrc] = []string{"a.com b.com"} }},
		{"empty source", func(m map[Directive][]string) { m[ImgSrc] = []string{" "} }},
		{"unknown keyword", func(m map[Directive][]string) { m[ScriptSrc] = []string{"'unsafe-everything'"} }},
		{"bad scheme", func(m map[Directive][]string) { m[ImgSrc] = []string{"1http:"} }},
		{"quote in host", func(m map[Directive][]string) { m[ImgSrc] = []string{`a.com"`} }},
		{"none mixed", func(m map[Directive][]string) { m[FrameAncestors] = []string{srcNone, srcSelf} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := minimalDirectives()
			tt.modify(src)

			_, err := NewDirectiveSet(src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPolicyMalformed), err.Error())
		})
	}
}

func TestNewDirectiveSet_NoneAlone(t *testing.T) {
	src := minimalDirectives()
	src[FrameAncestors] = []string{srcNone}

	d, err := NewDirectiveSet(src)
	require.NoError(t, err)
	assert.Contains(t, d.String(), "frame-ancestors 'none'")
}

func TestDirectiveSet_ZeroValueInvalid(t *testing.T) {
	assert.ErrorIs(t, DirectiveSet{}.Validate(), ErrPolicyMalformed)
}

func TestSecureHeaders(t *testing.T) {
	_, err := SecureHeaders(DirectiveSet{}, Config{Env: EnvProduction})
	require.ErrorIs(t, err, ErrPolicyMalformed)

	policy, err := DefaultDirectives()
	require.NoError(t, err)
	mw, err := SecureHeaders(policy, Config{Env: EnvProduction})
	require.NoError(t, err)

	var nonce string
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = CSPNonce(r)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "'nonce-"+nonce+"'")
	assert.NotContains(t, csp, NoncePlaceholder)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecureHeaders_HSTSOnlyBehindTLS(t *testing.T) {
	policy, err := DefaultDirectives()
	require.NoError(t, err)
	mw, err := SecureHeaders(policy, Config{Env: EnvProduction, Secure: true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "https://natours.test/", nil)
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
