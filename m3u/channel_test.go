package m3u

import (
	"strings"
	"testing"
)

func TestChannelEncode_FullRecord(t *testing.T) {
	ch := &Channel{
		Name:   "Rai 1",
		ID:     "rai1",
		Number: 1,
		Logo:   "http://x/rai1.png",
		URI:    "http://stream/rai1.m3u8",
	}

	var sb strings.Builder
	if err := ch.encode(&sb); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	want := "#EXTINF: -1 tvg-chno=\"1\" tvg-logo=\"http://x/rai1.png\" tvg-id=\"rai1\" tvg-name=\"Rai 1\" , Rai 1\n" +
		"http://stream/rai1.m3u8\n"
	if sb.String() != want {
		t.Errorf("record mismatch:\ngot:  %q\nwant: %q", sb.String(), want)
	}
}

func TestChannelEncode_UserAgentDirective(t *testing.T) {
	ch := &Channel{
		Name:      "Rai 1",
		ID:        "rai1",
		URI:       "http://stream/rai1.m3u8",
		UserAgent: "Mozilla/5.0",
	}

	var sb strings.Builder
	if err := ch.encode(&sb); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	lines := strings.Split(sb.String(), "\n")
	if lines[0] != "#EXTVLCOPT:http-user-agent=Mozilla/5.0" {
		t.Errorf("expected user-agent directive as first line, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "#EXTINF: -1 ") {
		t.Errorf("expected EXTINF on second line, got %q", lines[1])
	}
}

func TestChannelEncode_AttributePresence(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		absent  []string
		present []string
	}{
		{
			name:    "no number omits tvg-chno",
			channel: Channel{Name: "Rai 1", ID: "rai1", URI: "http://u"},
			absent:  []string{"tvg-chno"},
			present: []string{`tvg-id="rai1"`, `tvg-name="Rai 1"`},
		},
		{
			name:    "no logo omits tvg-logo",
			channel: Channel{Name: "Rai 1", ID: "rai1", Number: 1, URI: "http://u"},
			absent:  []string{"tvg-logo"},
			present: []string{`tvg-chno="1"`},
		},
		{
			name:    "no name omits tvg-name",
			channel: Channel{ID: "rai1", URI: "http://u"},
			absent:  []string{"tvg-name"},
			present: []string{`tvg-id="rai1"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := tt.channel.encode(&sb); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			for _, attr := range tt.absent {
				if strings.Contains(sb.String(), attr) {
					t.Errorf("expected %q to be absent from %q", attr, sb.String())
				}
			}
			for _, attr := range tt.present {
				if !strings.Contains(sb.String(), attr) {
					t.Errorf("expected %q to be present in %q", attr, sb.String())
				}
			}
		})
	}
}

func TestTVGID_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		channel  Channel
		expected string
	}{
		{
			name:     "explicit id wins",
			channel:  Channel{Name: "Rai News 24", ID: "rainews"},
			expected: "rainews",
		},
		{
			name:     "derived from name",
			channel:  Channel{Name: "Rai News 24"},
			expected: "rainews24",
		},
		{
			name:     "tabs and double spaces stripped",
			channel:  Channel{Name: "Top\tCrime  HD"},
			expected: "topcrimehd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.channel.TVGID(); got != tt.expected {
				t.Errorf("TVGID() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
