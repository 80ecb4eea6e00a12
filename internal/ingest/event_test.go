package ingest

import (
	"strings"
	"testing"
)

const sampleEvent = `{
  "Records": [
    {"eventName": "ObjectCreated:Put",
     "s3": {"bucket": {"name": "uploads-bucket"},
            "object": {"key": "incoming/batch%201.csv", "size": 1024}}},
    {"s3": {"bucket": {"name": "uploads-bucket"},
            "object": {"key": "incoming/two.csv"}}}
  ]
}`

func TestParseEvent(t *testing.T) {
	evt, err := ParseEvent(strings.NewReader(sampleEvent))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}

	objs := EventObjects(evt)
	if len(objs) != 2 {
		t.Fatalf("EventObjects = %v, want 2 entries", objs)
	}
	if objs[0].Bucket != "uploads-bucket" || objs[0].Key != "incoming/batch%201.csv" {
		t.Errorf("first object = %+v", objs[0])
	}
	if objs[1].Key != "incoming/two.csv" {
		t.Errorf("second object = %+v", objs[1])
	}
}

func TestParseEventRejectsBadJSON(t *testing.T) {
	if _, err := ParseEvent(strings.NewReader("{nope")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEventObjectsSkipsIncompleteEntries(t *testing.T) {
	evt, err := ParseEvent(strings.NewReader(`{
	  "Records": [
	    {"s3": {"bucket": {"name": "b"}}},
	    {"s3": {"object": {"key": "k"}}},
	    "not even a map",
	    {"s3": {"bucket": {"name": "b"}, "object": {"key": "good.csv"}}}
	  ]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	objs := EventObjects(evt)
	if len(objs) != 1 || objs[0].Key != "good.csv" {
		t.Errorf("EventObjects = %v, want only good.csv", objs)
	}
}

func TestEventObjectsEmptyEvent(t *testing.T) {
	evt, err := ParseEvent(strings.NewReader(`{"Records": []}`))
	if err != nil {
		t.Fatal(err)
	}
	if objs := EventObjects(evt); objs != nil {
		t.Errorf("EventObjects = %v, want nil", objs)
	}
	if objs := EventObjects(nil); objs != nil {
		t.Errorf("EventObjects(nil) = %v, want nil", objs)
	}
}
