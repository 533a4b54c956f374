package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(Config{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type formFile struct {
	field, name string
	data        []byte
}

func postMultipart(t *testing.T, url string, files []formFile, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var env APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return env
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("success = false: %+v", env.Error)
	}
	data := env.Data.(map[string]interface{})
	if data["status"] != "healthy" {
		t.Errorf("status = %v", data["status"])
	}
	if data["dictionary"] != "ipa" {
		t.Errorf("dictionary = %v, want ipa", data["dictionary"])
	}
}

func TestConvertText(t *testing.T) {
	ts := newTestServer(t)

	resp := postMultipart(t, ts.URL+"/api/v1/convert",
		[]formFile{{"file", "tokyo.txt", []byte("東京")}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "tokyo_converted.txt") {
		t.Errorf("content disposition = %q", cd)
	}
	body := string(readBody(t, resp))
	if body != "\uFEFFとうきょう\n" {
		t.Errorf("body = %q", body)
	}
}

func TestConvertCSVColumn(t *testing.T) {
	ts := newTestServer(t)

	resp := postMultipart(t, ts.URL+"/api/v1/convert",
		[]formFile{{"file", "poems.csv", []byte("id,poem\n1,東京\n")}},
		map[string]string{"target": "poem"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	body := string(readBody(t, resp))
	if !strings.Contains(body, "1,とうきょう") {
		t.Errorf("body = %q", body)
	}
}

func TestConvertErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := postMultipart(t, ts.URL+"/api/v1/convert",
		[]formFile{{"file", "poems.pdf", []byte("x")}}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported extension status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postMultipart(t, ts.URL+"/api/v1/convert",
		[]formFile{{"file", "poems.csv", []byte("id,poem\n1,x\n")}},
		map[string]string{"target": "body"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing column status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "FORMAT_ERROR" {
		t.Errorf("error = %+v, want FORMAT_ERROR", env.Error)
	}

	resp = postMultipart(t, ts.URL+"/api/v1/convert",
		[]formFile{{"file", "t.txt", []byte("x")}},
		map[string]string{"mode": "romaji"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad mode status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/convert", nil)
	if err != nil {
		t.Fatal(err)
	}
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", getResp.StatusCode)
	}
	getResp.Body.Close()
}

const checkOrig = `<root><l xml:id="p1"><seg>久方の</seg><seg>光のどけき</seg><seg>春の日に</seg><seg>しづ心なく</seg><seg>花の散るらむ</seg></l></root>`
const checkConv = `<root><l xml:id="p1"><seg>ひさかたの</seg><seg>ひかりのどけき</seg><seg>はるのひに</seg><seg>しづこころなく</seg><seg>はなのちるらむ</seg></l></root>`

func TestCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := postMultipart(t, ts.URL+"/api/v1/check", []formFile{
		{"original", "orig.xml", []byte(checkOrig)},
		{"converted", "conv.xml", []byte(checkConv)},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("success = false: %+v", env.Error)
	}
	raw, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	var report CheckReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 5 || report.Mismatches != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.Results[0].Verse != "p1" || report.Results[0].Expected != 5 {
		t.Errorf("first result = %+v", report.Results[0])
	}
}

func TestCheckStructuralMismatch(t *testing.T) {
	ts := newTestServer(t)

	conv := `<root><l xml:id="p1"><seg>ひさかたの</seg></l></root>`
	resp := postMultipart(t, ts.URL+"/api/v1/check", []formFile{
		{"original", "orig.xml", []byte(checkOrig)},
		{"converted", "conv.xml", []byte(conv)},
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "STRUCTURAL_MISMATCH" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestFix(t *testing.T) {
	ts := newTestServer(t)

	edits := `{"p1": ["ひさかたの", "ひかりのどけき", "はるのひに", "しずこころなく", "はなのちるらん"]}`
	resp := postMultipart(t, ts.URL+"/api/v1/fix",
		[]formFile{{"converted", "conv.xml", []byte(checkConv)}},
		map[string]string{"edits": edits})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	body := string(readBody(t, resp))
	if !strings.Contains(body, "<seg>しずこころなく</seg>") {
		t.Errorf("body = %q", body)
	}

	resp = postMultipart(t, ts.URL+"/api/v1/fix",
		[]formFile{{"converted", "conv.xml", []byte(checkConv)}},
		map[string]string{"edits": "not json"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad edits status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}
