package dictionary

import (
	"encoding/xml"
	"io"
)

// The types below mirror the schema documented in spec.md §6:
//
//	<diameter>
//	  <application id="N">
//	    <avp code="C" name="..." vendor-id="V" type="T">
//	      <enum code="N" name="..."/>
//	    </avp>
//	  </application>
//	</diameter>
//
// Unknown elements and attributes are ignored by encoding/xml by default,
// which already satisfies spec.md §6's "unknown elements are ignored".

type xmlDiameter struct {
	XMLName      xml.Name         `xml:"diameter"`
	Applications []xmlApplication `xml:"application"`
}

type xmlApplication struct {
	ID  uint32   `xml:"id,attr"`
	AVPs []xmlAVP `xml:"avp"`
}

type xmlAVP struct {
	Code     uint32    `xml:"code,attr"`
	Name     string    `xml:"name,attr"`
	VendorID uint32    `xml:"vendor-id,attr"`
	Type     string    `xml:"type,attr"`
	Enums    []xmlEnum `xml:"enum"`
}

type xmlEnum struct {
	Code uint32 `xml:"code,attr"`
	Name string `xml:"name,attr"`
}

func parseXML(r io.Reader) (*xmlDiameter, error) {
	doc := &xmlDiameter{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
