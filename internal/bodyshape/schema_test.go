package bodyshape

import "testing"

func TestSchemaByName(t *testing.T) {
	schema, err := SchemaByName(" MoveNet17 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema != MoveNet17 {
		t.Fatalf("expected %+v, got %+v", MoveNet17, schema)
	}

	if _, err := SchemaByName("openpose"); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

func TestSchemaValidate(t *testing.T) {
	if err := BlazePose33.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := Schema{Name: "dup", LeftShoulder: 1, RightShoulder: 1, LeftHip: 2, RightHip: 3}
	if err := dup.Validate(); err == nil {
		t.Fatal("expected error for duplicated index")
	}

	neg := Schema{Name: "neg", LeftShoulder: -1, RightShoulder: 1, LeftHip: 2, RightHip: 3}
	if err := neg.Validate(); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := Triangle.Label(); got != "Triangle (Pear)" {
		t.Fatalf("unexpected label %q", got)
	}
	if Unresolved.Valid() {
		t.Fatal("unresolved must not be a valid category")
	}
	if !Oval.Valid() {
		t.Fatal("oval is part of the vocabulary")
	}
}
