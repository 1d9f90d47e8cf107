package proofs

import (
	"context"
	"testing"

	"auction-escrow/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func TestNewURLResolver(t *testing.T) {
	t.Parallel()

	_, err := NewURLResolver("ftp://files.example.com")
	require.Error(t, err)

	_, err = NewURLResolver("://bad")
	require.Error(t, err)

	r, err := NewURLResolver("https://cdn.example.com/proofs")
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestURLResolver_Resolve(t *testing.T) {
	t.Parallel()

	r, err := NewURLResolver("https://cdn.example.com/proofs")
	require.NoError(t, err)

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "simple_key", ref: "receipt-01.png", want: "https://cdn.example.com/proofs/receipt-01.png"},
		{name: "nested_key", ref: "payments/2026/05/r.jpg", want: "https://cdn.example.com/proofs/payments/2026/05/r.jpg"},
		{name: "empty", ref: "", wantErr: true},
		{name: "traversal", ref: "a/../../etc/passwd", wantErr: true},
		{name: "leading_slash", ref: "/abs", wantErr: true},
		{name: "spaces", ref: "my receipt.png", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(context.Background(), tc.ref)
			if tc.wantErr {
				require.ErrorIs(t, err, biddingerrors.ErrInvalidProof)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
