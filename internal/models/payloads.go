package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are checked as numbers so gt/gte apply to money fields
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
}

// DestinatairePayload is the create/update body of a consignee
type DestinatairePayload struct {
	Nom          string  `json:"nom" validate:"required,max=100"`
	Prenom       *string `json:"prenom,omitempty" validate:"omitempty,max=100"`
	Societe      *string `json:"societe,omitempty" validate:"omitempty,max=150"`
	Contact      string  `json:"contact" validate:"required,max=30"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Adresse      *string `json:"adresse,omitempty" validate:"omitempty,max=255"`
	Observations *string `json:"observations,omitempty"`
}

// FournisseurPayload is the create/update body of a supplier
type FournisseurPayload struct {
	Nom            string  `json:"nom" validate:"required,max=100"`
	Prenom         *string `json:"prenom,omitempty" validate:"omitempty,max=100"`
	Identification *string `json:"identification,omitempty" validate:"omitempty,max=30"`
	Contact        string  `json:"contact" validate:"required,max=30"`
	Localisation   *string `json:"localisation,omitempty" validate:"omitempty,max=150"`
	Observations   *string `json:"observations,omitempty"`
}

// DistillationPayload is the create/update body of a distillation batch
type DistillationPayload struct {
	Numero           string     `json:"numero" validate:"required,max=50"`
	SiteID           int64      `json:"site_id" validate:"required,gt=0"`
	MatierePremiere  string     `json:"matiere_premiere" validate:"required"`
	QuantiteMatiere  *float64   `json:"quantite_matiere,omitempty" validate:"omitempty,gt=0"`
	QuantiteResultat *float64   `json:"quantite_resultat,omitempty" validate:"omitempty,gte=0"`
	DateDebut        *time.Time `json:"date_debut,omitempty"`
	Observations     *string    `json:"observations,omitempty"`
}

// ExpeditionPayload is the create/update body of a shipment
type ExpeditionPayload struct {
	NumeroBordereau string     `json:"numero_bordereau" validate:"required,max=50"`
	DestinataireID  int64      `json:"destinataire_id" validate:"required,gt=0"`
	Chauffeur       *string    `json:"chauffeur,omitempty" validate:"omitempty,max=100"`
	Vehicule        *string    `json:"vehicule,omitempty" validate:"omitempty,max=50"`
	TypeProduit     string     `json:"type_produit" validate:"required"`
	Quantite        *float64   `json:"quantite,omitempty" validate:"omitempty,gt=0"`
	Poids           *float64   `json:"poids,omitempty" validate:"omitempty,gt=0"`
	DateExpedition  *time.Time `json:"date_expedition,omitempty"`
	Observations    *string    `json:"observations,omitempty"`
}

// ReceptionPayload is the create/update body of a reception
type ReceptionPayload struct {
	NumeroReception string     `json:"numero_reception" validate:"required,max=50"`
	FournisseurID   int64      `json:"fournisseur_id" validate:"required,gt=0"`
	TypeProduit     string     `json:"type_produit" validate:"required"`
	PoidsBrut       *float64   `json:"poids_brut,omitempty" validate:"omitempty,gt=0"`
	PoidsNet        *float64   `json:"poids_net,omitempty" validate:"omitempty,gt=0,ltefield=PoidsBrut"`
	DateReception   *time.Time `json:"date_reception,omitempty"`
	Observations    *string    `json:"observations,omitempty"`
}

// TransactionPayload is the create/update body of a ledger movement
type TransactionPayload struct {
	Reference    string          `json:"reference" validate:"required,max=50"`
	Type         string          `json:"type" validate:"required,oneof=entree sortie"`
	Montant      decimal.Decimal `json:"montant" validate:"gt=0"`
	ModePaiement *string         `json:"mode_paiement,omitempty" validate:"omitempty,oneof=especes cheque virement mobile_money"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	Date         *time.Time      `json:"date,omitempty"`
}

// AgregagePayload is the create/update body of a sales lot
type AgregagePayload struct {
	NumeroLot          string          `json:"numero_lot" validate:"required,max=50"`
	Produit            string          `json:"produit" validate:"required"`
	Acheteur           *string         `json:"acheteur,omitempty" validate:"omitempty,max=150"`
	Contact            *string         `json:"contact,omitempty" validate:"omitempty,max=30"`
	QuantiteDisponible float64         `json:"quantite_disponible" validate:"gt=0"`
	PrixUnitaire       decimal.Decimal `json:"prix_unitaire" validate:"gte=0"`
	Observations       *string         `json:"observations,omitempty"`
}

// TransitionPayload carries the optional data of a status transition
type TransitionPayload struct {
	Motif    *string    `json:"motif,omitempty" validate:"omitempty,max=500"`
	PoidsNet *float64   `json:"poids_net,omitempty" validate:"omitempty,gt=0"`
	Date     *time.Time `json:"date,omitempty"`
}

// Validate checks a payload against its validation tags
func Validate(payload interface{}) error {
	return validate.Struct(payload)
}

// FieldErrors converts validation failures into a field -> message map.
// It returns nil for errors that are not validation failures.
func FieldErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ obligatoire"
	case "max":
		return fmt.Sprintf("%s caractères maximum", fe.Param())
	case "email":
		return "adresse email invalide"
	case "oneof":
		return fmt.Sprintf("valeur attendue parmi: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("doit être supérieur à %s", fe.Param())
	case "gte":
		return fmt.Sprintf("doit être supérieur ou égal à %s", fe.Param())
	case "ltefield":
		return "ne peut pas dépasser le poids brut"
	default:
		return fmt.Sprintf("valeur invalide (%s)", fe.Tag())
	}
}
