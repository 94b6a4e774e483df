// Package dictionary loads Diameter AVP definitions from XML documents and
// answers the single question the codec needs at decode time: given an
// application-id, vendor-id and AVP code, what value type is this?
//
// A Dictionary is immutable once built and safe for concurrent use by many
// connections; Load and LoadFiles build a new Dictionary rather than
// mutating one in place, so a *Dictionary can be shared by value (as a
// pointer to an immutable struct) across client and server goroutines.
package dictionary

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/cariboulabs/diameter/direrr"
)

// ValueType names one of the wire encodings an AVP payload may carry. The
// zero value, Unknown, is never stored in a Dictionary entry — it is what
// lookups return when nothing matches.
type ValueType int

const (
	Unknown ValueType = iota
	AddressIPv4
	AddressIPv6
	Identity
	DiameterURI
	OctetString
	UTF8String
	Enumerated
	Integer32
	Integer64
	Unsigned32
	Unsigned64
	Float32
	Float64
	Time
	Grouped
)

func (t ValueType) String() string {
	switch t {
	case AddressIPv4:
		return "AddressIPv4"
	case AddressIPv6:
		return "AddressIPv6"
	case Identity:
		return "Identity"
	case DiameterURI:
		return "DiameterURI"
	case OctetString:
		return "OctetString"
	case UTF8String:
		return "UTF8String"
	case Enumerated:
		return "Enumerated"
	case Integer32:
		return "Integer32"
	case Integer64:
		return "Integer64"
	case Unsigned32:
		return "Unsigned32"
	case Unsigned64:
		return "Unsigned64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Time:
		return "Time"
	case Grouped:
		return "Grouped"
	default:
		return "Unknown"
	}
}

// xmlTypeNames maps the schema's type="..." attribute values (spec.md §6)
// onto ValueType. "Address" is split into AddressIPv4/AddressIPv6 only once
// an actual value is decoded (the dictionary itself doesn't know which
// family a given instance will carry), so a dictionary entry of type
// Address is represented internally as addressFamilyAgnostic and resolved
// by the AVP decoder from the family tag in the wire bytes.
var xmlTypeNames = map[string]ValueType{
	"Address":     addressFamilyAgnostic,
	"Identity":    Identity,
	"DiameterURI": DiameterURI,
	"Enumerated":  Enumerated,
	"Integer32":   Integer32,
	"Integer64":   Integer64,
	"OctetString": OctetString,
	"Time":        Time,
	"Unsigned32":  Unsigned32,
	"Unsigned64":  Unsigned64,
	"Float32":     Float32,
	"Float64":     Float64,
	"UTF8String":  UTF8String,
	"Grouped":     Grouped,
}

// addressFamilyAgnostic is an internal marker stored for AVPs declared
// type="Address" in the XML. Lookup returns it unchanged; IsAddress
// recognizes it, and the message package's AVP decoder resolves it to
// AddressIPv4/AddressIPv6 from the wire family tag (see
// message.addressFamilyFromWire).
const addressFamilyAgnostic ValueType = -1

// IsAddress reports whether t is the family-agnostic Address declaration
// (used by the AVP framing layer to pick the family from the wire).
func IsAddress(t ValueType) bool { return t == addressFamilyAgnostic }

// EnumValue names one member of an Enumerated AVP's value space.
type EnumValue struct {
	Code uint32
	Name string
}

type key struct {
	applicationID uint32
	vendorID      uint32
	code          uint32
}

// entry is one fully-resolved AVP definition.
type entry struct {
	name  string
	typ   ValueType
	enums map[uint32]string
}

// baseApplicationID is the fallback scope consulted when a lookup for a
// specific application-id misses (spec.md §4.2: "lookup is scoped by
// application_id with fallback to the base application").
const baseApplicationID = uint32(0)

// Dictionary is an immutable, read-only-after-construction table of AVP
// definitions. The zero value is not useful; build one with Load/LoadFiles.
type Dictionary struct {
	entries map[key]*entry
}

//go:embed base.xml
var baseXML []byte

// Base returns the dictionary bundled with the module, covering the RFC
// 6733 base-protocol AVPs. Load and LoadFiles build a Dictionary from only
// the documents passed to them; the base entries are part of the result
// only when base.xml is among those documents.
func Base() (*Dictionary, error) {
	return Load(nil, bytes.NewReader(baseXML))
}

// Load parses one or more XML documents (spec.md §6 schema) and merges
// them into a single Dictionary, last-writer-wins on a conflicting
// (application, vendor, code), per spec.md §9. Every overwrite is logged
// through logger if logger is non-nil.
func Load(logger log.Logger, readers ...io.Reader) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[key]*entry)}
	for _, r := range readers {
		doc, err := parseXML(r)
		if err != nil {
			return nil, direrr.New(direrr.KindDictionaryLoad, fmt.Sprintf("diameter: dictionary: %s", err))
		}
		if err := d.merge(doc, logger); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// LoadFiles is a convenience wrapper around Load that opens each path.
func LoadFiles(logger log.Logger, paths ...string) (*Dictionary, error) {
	readers := make([]io.Reader, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, direrr.New(direrr.KindDictionaryLoad, fmt.Sprintf("diameter: dictionary: open %s: %s", p, err))
		}
		closers = append(closers, f)
		readers = append(readers, f)
	}
	return Load(logger, readers...)
}

func (d *Dictionary) merge(doc *xmlDiameter, logger log.Logger) error {
	for _, app := range doc.Applications {
		for _, xavp := range app.AVPs {
			typ, ok := xmlTypeNames[xavp.Type]
			if !ok {
				return direrr.New(direrr.KindDictionaryLoad,
					fmt.Sprintf("diameter: dictionary: avp %q (code %d): unknown type %q", xavp.Name, xavp.Code, xavp.Type))
			}
			e := &entry{name: xavp.Name, typ: typ}
			if len(xavp.Enums) > 0 {
				e.enums = make(map[uint32]string, len(xavp.Enums))
				for _, en := range xavp.Enums {
					e.enums[en.Code] = en.Name
				}
			}
			k := key{applicationID: app.ID, vendorID: xavp.VendorID, code: xavp.Code}
			if _, exists := d.entries[k]; exists && logger != nil {
				level.Warn(logger).Log(
					"msg", "dictionary entry overwritten",
					"application_id", k.applicationID,
					"vendor_id", k.vendorID,
					"code", k.code,
					"name", xavp.Name,
				)
			}
			d.entries[k] = e
		}
	}
	return nil
}

// Lookup returns the declared value type and symbolic name for
// (applicationID, vendorID, code), falling back to the base application
// (id 0) when the specific application has no entry. ok is false when
// neither scope defines the AVP; decoders must then treat it as Unknown
// without failing (spec.md §4.2).
func (d *Dictionary) Lookup(applicationID, vendorID, code uint32) (typ ValueType, name string, ok bool) {
	if e, found := d.entries[key{applicationID, vendorID, code}]; found {
		return e.typ, e.name, true
	}
	if applicationID != baseApplicationID {
		if e, found := d.entries[key{baseApplicationID, vendorID, code}]; found {
			return e.typ, e.name, true
		}
	}
	return Unknown, "", false
}

// EnumName returns the symbolic name for an Enumerated AVP's value, or ""
// if the AVP or the specific value isn't declared.
func (d *Dictionary) EnumName(applicationID, vendorID, code, value uint32) string {
	e, found := d.entries[key{applicationID, vendorID, code}]
	if !found && applicationID != baseApplicationID {
		e, found = d.entries[key{baseApplicationID, vendorID, code}]
	}
	if !found || e.enums == nil {
		return ""
	}
	return e.enums[value]
}
