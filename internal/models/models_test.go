package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(DestinatairePayload{Email: ptr("not-an-email")})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "champ obligatoire", fields["nom"])
	assert.Equal(t, "champ obligatoire", fields["contact"])
	assert.Equal(t, "adresse email invalide", fields["email"])
}

func TestValidateAcceptsCompletePayload(t *testing.T) {
	err := Validate(ExpeditionPayload{
		NumeroBordereau: "BL-2024-001",
		DestinataireID:  4,
		TypeProduit:     "huile essentielle ylang",
		Poids:           ptr(120.5),
	})

	assert.NoError(t, err)
}

func TestValidateDecimalAmounts(t *testing.T) {
	ok := TransactionPayload{Reference: "TX-1", Type: TransactionEntree, Montant: decimal.RequireFromString("150000.50")}
	assert.NoError(t, Validate(ok))

	zero := TransactionPayload{Reference: "TX-2", Type: TransactionSortie, Montant: decimal.Zero}
	fields := FieldErrors(Validate(zero))
	assert.Contains(t, fields, "montant")

	badType := TransactionPayload{Reference: "TX-3", Type: "virement", Montant: decimal.NewFromInt(1)}
	fields = FieldErrors(Validate(badType))
	assert.Equal(t, "valeur attendue parmi: entree sortie", fields["type"])
}

func TestValidateNetWeightBoundedByGross(t *testing.T) {
	p := ReceptionPayload{
		NumeroReception: "REC-7",
		FournisseurID:   2,
		TypeProduit:     "girofle",
		PoidsBrut:       ptr(100.0),
		PoidsNet:        ptr(120.0),
	}

	fields := FieldErrors(Validate(p))

	assert.Contains(t, fields, "poids_net")
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}

func TestAgregageValeur(t *testing.T) {
	a := Agregage{PrixUnitaire: ptr(decimal.NewFromInt(2000)), QuantiteRestant: ptr(2.5)}
	require.NotNil(t, a.Valeur())
	assert.True(t, decimal.NewFromInt(5000).Equal(*a.Valeur()))

	assert.Nil(t, Agregage{}.Valeur())
}

func TestTransactionSigned(t *testing.T) {
	out := Transaction{Type: TransactionSortie, Montant: ptr(decimal.NewFromInt(300))}
	in := Transaction{Type: TransactionEntree, Montant: ptr(decimal.NewFromInt(300))}

	assert.Equal(t, "-300", out.Signed().String())
	assert.Equal(t, "300", in.Signed().String())
	assert.Nil(t, Transaction{}.Signed())
}
