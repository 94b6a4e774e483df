package dictionary_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/direrr"
)

func TestBaseLoads(t *testing.T) {
	d, err := dictionary.Base()
	require.NoError(t, err)

	typ, name, ok := d.Lookup(0, 0, 263)
	require.True(t, ok)
	require.Equal(t, "Session-Id", name)
	require.Equal(t, dictionary.UTF8String, typ)
}

func TestLookupMissReturnsUnknown(t *testing.T) {
	d, err := dictionary.Base()
	require.NoError(t, err)

	typ, _, ok := d.Lookup(0, 0, 999999)
	require.False(t, ok)
	require.Equal(t, dictionary.Unknown, typ)
}

func TestApplicationScopeFallsBackToBase(t *testing.T) {
	d, err := dictionary.Base()
	require.NoError(t, err)

	// application 4 (Credit-Control) never defined Session-Id itself;
	// lookup must fall back to the base application.
	typ, name, ok := d.Lookup(4, 0, 263)
	require.True(t, ok)
	require.Equal(t, "Session-Id", name)
	require.Equal(t, dictionary.UTF8String, typ)
}

func TestApplicationScopedEntryNotVisibleToOtherApplications(t *testing.T) {
	extra := `<diameter>
  <application id="4">
    <avp code="416" name="CC-Request-Number" vendor-id="0" type="Unsigned32"/>
  </application>
</diameter>`

	d, err := dictionary.Load(nil, strings.NewReader(extra))
	require.NoError(t, err)

	typ, name, ok := d.Lookup(4, 0, 416)
	require.True(t, ok)
	require.Equal(t, "CC-Request-Number", name)
	require.Equal(t, dictionary.Unsigned32, typ)

	// Not visible under a different application-id.
	_, _, ok = d.Lookup(7, 0, 416)
	require.False(t, ok)
}

func TestLastWriterWinsOnConflict(t *testing.T) {
	first := `<diameter><application id="0">
    <avp code="900" name="First-Name" vendor-id="0" type="Integer32"/>
  </application></diameter>`
	second := `<diameter><application id="0">
    <avp code="900" name="Second-Name" vendor-id="0" type="UTF8String"/>
  </application></diameter>`

	d, err := dictionary.Load(nil, strings.NewReader(first), strings.NewReader(second))
	require.NoError(t, err)

	typ, name, ok := d.Lookup(0, 0, 900)
	require.True(t, ok)
	require.Equal(t, "Second-Name", name)
	require.Equal(t, dictionary.UTF8String, typ)
}

func TestUnknownTypeIsDictionaryLoadError(t *testing.T) {
	bad := `<diameter><application id="0">
    <avp code="1" name="Bogus" vendor-id="0" type="NotAType"/>
  </application></diameter>`

	_, err := dictionary.Load(nil, strings.NewReader(bad))
	require.Error(t, err)
	require.Equal(t, direrr.KindDictionaryLoad, direrr.KindOf(err))
}

func TestEnumName(t *testing.T) {
	d, err := dictionary.Base()
	require.NoError(t, err)

	require.Equal(t, "INITIAL_REQUEST", d.EnumName(0, 0, 40, 1))
	require.Equal(t, "", d.EnumName(0, 0, 40, 99))
}
