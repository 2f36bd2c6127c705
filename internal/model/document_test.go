package model

import "testing"

func TestPagesOfSide(t *testing.T) {
	sample := &DocumentSample{
		Type: DocTypeNationalID,
		Pages: []DocumentPage{
			{Filename: "scan2.jpg", Side: SideBack},
			{Filename: "scan1.jpg", Side: SideFront},
			{Filename: "scan3.jpg", Side: SideFront},
			{Filename: "extra.jpg", Side: SideUnknown},
		},
	}

	front := sample.PagesOfSide(SideFront)
	if len(front) != 2 || front[0].Filename != "scan1.jpg" || front[1].Filename != "scan3.jpg" {
		t.Errorf("Expected front pages in submission order, got %+v", front)
	}
	if back := sample.PagesOfSide(SideBack); len(back) != 1 || back[0].Filename != "scan2.jpg" {
		t.Errorf("Expected one back page, got %+v", back)
	}
	if unknown := sample.PagesOfSide(SideUnknown); len(unknown) != 1 {
		t.Errorf("Expected one unknown page, got %+v", unknown)
	}
}

func TestParseDocumentType(t *testing.T) {
	if dt, err := ParseDocumentType("National ID Card"); err != nil || dt != DocTypeNationalID {
		t.Errorf("Expected display name to resolve, got %q err=%v", dt, err)
	}
	if dt, err := ParseDocumentType(" salary_slip "); err != nil || dt != DocTypeSalarySlip {
		t.Errorf("Expected snake_case identifier to resolve, got %q err=%v", dt, err)
	}
	if _, err := ParseDocumentType("passport"); err == nil {
		t.Error("Expected error for unknown type")
	}
}
