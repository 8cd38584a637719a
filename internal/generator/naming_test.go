package generator

import "testing"

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"/user/get":              "UserGet",
		"/user/{id}/get":         "UserIdGet",
		"/order/list-by_status":  "OrderListByStatus",
		"/v2/items":              "V2Items",
		"/2fa/verify":            "Api2faVerify",
		"/":                      "Api",
		"":                       "Api",
		"/api/user/:uid/profile": "ApiUserUidProfile",
	}
	for in, want := range cases {
		if got := BaseName(in); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	if got := Capitalize("profile"); got != "Profile" {
		t.Fatalf("got %q", got)
	}
	if got := Capitalize(""); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := Capitalize("userInfo"); got != "UserInfo" {
		t.Fatalf("got %q", got)
	}
}
