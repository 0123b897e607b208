package ledgercsv_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/zakati/internal/importer/ledgercsv"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

func TestParser_Parse(t *testing.T) {
	type testCase struct {
		name    string
		content string
		wantLen int
		verify  func(t *testing.T, drafts []ledger.Draft)
		wantErr bool
	}

	tests := []testCase{
		{
			name: "English export",
			content: `Date,Asset,Type,Quantity,Note
2025-01-10,USD,ADD,"1,000.50",salary
2025-02-01,Gold 24k,WITHDRAW,12.5,
`,
			wantLen: 2,
			verify: func(t *testing.T, drafts []ledger.Draft) {
				assert.Equal(t, "USD", drafts[0].AssetLabel)
				assert.Equal(t, ledger.TypeAdd, drafts[0].Type)
				assert.True(t, decimal.RequireFromString("1000.5").Equal(drafts[0].Quantity))
				assert.Equal(t, "salary", drafts[0].Note)
				assert.Equal(t, 2, drafts[0].Line)
				assert.True(t, drafts[0].OccurredAt.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)))

				assert.Equal(t, "Gold 24k", drafts[1].AssetLabel)
				assert.Equal(t, ledger.TypeWithdraw, drafts[1].Type)
				assert.True(t, decimal.RequireFromString("12.5").Equal(drafts[1].Quantity))
			},
		},
		{
			name: "Arabic export with Arabic-Indic digits",
			content: `التاريخ;الأصل;النوع;الكمية;ملاحظة
٢٠٢٥-٠٣-٠١;ذهب;زكاة;١٢٫٥;دفعة
01/04/2025;ريال;إضافة;1.234,5;
`,
			wantLen: 2,
			verify: func(t *testing.T, drafts []ledger.Draft) {
				assert.Equal(t, "ذهب", drafts[0].AssetLabel)
				assert.Equal(t, ledger.TypeZakatOut, drafts[0].Type)
				assert.True(t, decimal.RequireFromString("12.5").Equal(drafts[0].Quantity))
				assert.True(t, drafts[0].OccurredAt.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

				assert.Equal(t, ledger.TypeAdd, drafts[1].Type)
				assert.True(t, decimal.RequireFromString("1234.5").Equal(drafts[1].Quantity))
				assert.True(t, drafts[1].OccurredAt.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name: "Split in/out columns",
			content: `Date,Asset,In,Out
2025-01-10,EUR,200,
2025-01-11,EUR,,-50
`,
			wantLen: 2,
			verify: func(t *testing.T, drafts []ledger.Draft) {
				assert.Equal(t, ledger.TypeAdd, drafts[0].Type)
				assert.True(t, decimal.NewFromInt(200).Equal(drafts[0].Quantity))
				assert.Equal(t, ledger.TypeWithdraw, drafts[1].Type)
				assert.True(t, decimal.NewFromInt(50).Equal(drafts[1].Quantity))
			},
		},
		{
			name: "Preamble and footer rows are skipped",
			content: `Ledger export
Owner,someone@example.com

Date,Asset,Type,Quantity
2025-01-10,USD,ADD,10
Total,,,10
`,
			wantLen: 1,
			verify: func(t *testing.T, drafts []ledger.Draft) {
				assert.Equal(t, 5, drafts[0].Line)
			},
		},
		{
			name:    "Byte order mark before header",
			content: "\uFEFFDate,Asset,Type,Quantity\n2025-01-10,USD,ADD,10\n",
			wantLen: 1,
			verify: func(t *testing.T, drafts []ledger.Draft) {
				assert.Equal(t, "USD", drafts[0].AssetLabel)
			},
		},
		{
			name:    "Empty File",
			content: "",
			wantLen: 0,
		},
		{
			name:    "Header Only",
			content: "Date,Asset,Type,Quantity",
			wantLen: 0,
		},
		{
			name:    "Unknown layout",
			content: "When,What,How much\n2025-01-10,USD,10\n",
			wantErr: true,
		},
		{
			name:    "Unknown type",
			content: "Date,Asset,Type,Quantity\n2025-01-10,USD,GIFT,10\n",
			wantErr: true,
		},
		{
			name:    "Bad quantity",
			content: "Date,Asset,Type,Quantity\n2025-01-10,USD,ADD,ten\n",
			wantErr: true,
		},
		{
			name:    "Missing asset",
			content: "Date,Asset,Type,Quantity\n2025-01-10,,ADD,10\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ledgercsv.NewParser(time.UTC)

			got, err := p.Parse(strings.NewReader(tt.content), "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)

			if tt.verify != nil {
				tt.verify(t, got)
			}
		})
	}
}

func TestParser_ParseWindows1256(t *testing.T) {
	// "ذهب" in windows-1256.
	content := append([]byte("Date,Asset,Type,Quantity\n2025-01-10,"), 0xD0, 0xE5, 0xC8)
	content = append(content, []byte(",ADD,5\n")...)

	got, err := ledgercsv.NewParser(nil).Parse(strings.NewReader(string(content)), "windows-1256")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ذهب", got[0].AssetLabel)
}
