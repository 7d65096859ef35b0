package nacos

import "testing"

func TestParseServerAddrs(t *testing.T) {
	tests := []struct {
		name    string
		addrs   string
		want    int
		wantErr bool
	}{
		{name: "single", addrs: "localhost:8848", want: 1},
		{name: "cluster with spaces", addrs: "10.0.0.1:8848, 10.0.0.2:8848", want: 2},
		{name: "missing port", addrs: "localhost", wantErr: true},
		{name: "bad port", addrs: "localhost:abc", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseServerAddrs(tc.addrs)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServerAddrs: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("got %d servers, want %d", len(got), tc.want)
			}
			if got[0].Port != 8848 {
				t.Errorf("port = %d", got[0].Port)
			}
		})
	}
}
