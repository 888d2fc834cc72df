package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state reported by the backend for a record
type Status string

const (
	StatusPending           Status = "pending"
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"
	StatusReceived          Status = "received"
	StatusPendingValidation Status = "pending_validation"
	StatusValidated         Status = "validated"
	StatusRejected          Status = "rejected"
	StatusPaid              Status = "paid"
)

// Transaction types of the ledger
const (
	TransactionEntree = "entree"
	TransactionSortie = "sortie"
)

// User is the account that created or last edited a record
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nom      string `json:"nom,omitempty"`
	Prenom   string `json:"prenom,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Site represents a collection or distillation site
type Site struct {
	ID           int64   `json:"id"`
	Nom          string  `json:"nom"`
	Localisation *string `json:"localisation,omitempty"`
}

// Destinataire represents a consignee receiving expeditions
type Destinataire struct {
	ID           int64     `json:"id"`
	Nom          string    `json:"nom"`
	Prenom       *string   `json:"prenom,omitempty"`
	Societe      *string   `json:"societe,omitempty"`
	Contact      string    `json:"contact"`
	Email        *string   `json:"email,omitempty"`
	Adresse      *string   `json:"adresse,omitempty"`
	Observations *string   `json:"observations,omitempty"`
	Createur     *User     `json:"createur,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Fournisseur represents a supplier or collector of raw material
type Fournisseur struct {
	ID             int64     `json:"id"`
	Nom            string    `json:"nom"`
	Prenom         *string   `json:"prenom,omitempty"`
	Identification *string   `json:"identification,omitempty"`
	Contact        string    `json:"contact"`
	Localisation   *string   `json:"localisation,omitempty"`
	Observations   *string   `json:"observations,omitempty"`
	Createur       *User     `json:"createur,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Distillation represents one distillation batch on a site
type Distillation struct {
	ID               int64      `json:"id"`
	Numero           string     `json:"numero"`
	SiteID           int64      `json:"site_id"`
	Site             *Site      `json:"site,omitempty"`
	MatierePremiere  string     `json:"matiere_premiere"`
	QuantiteMatiere  *float64   `json:"quantite_matiere,omitempty"`
	QuantiteResultat *float64   `json:"quantite_resultat,omitempty"`
	DateDebut        *time.Time `json:"date_debut,omitempty"`
	DateFin          *time.Time `json:"date_fin,omitempty"`
	Statut           Status     `json:"statut"`
	Observations     *string    `json:"observations,omitempty"`
	Createur         *User      `json:"createur,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Expedition represents a shipment sent to a consignee
type Expedition struct {
	ID              int64         `json:"id"`
	NumeroBordereau string        `json:"numero_bordereau"`
	DestinataireID  int64         `json:"destinataire_id"`
	Destinataire    *Destinataire `json:"destinataire,omitempty"`
	Chauffeur       *string       `json:"chauffeur,omitempty"`
	Vehicule        *string       `json:"vehicule,omitempty"`
	TypeProduit     string        `json:"type_produit"`
	Quantite        *float64      `json:"quantite,omitempty"`
	Poids           *float64      `json:"poids,omitempty"`
	DateExpedition  *time.Time    `json:"date_expedition,omitempty"`
	Statut          Status        `json:"statut"`
	Observations    *string       `json:"observations,omitempty"`
	Createur        *User         `json:"createur,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Reception represents raw material received from a supplier
type Reception struct {
	ID              int64        `json:"id"`
	NumeroReception string       `json:"numero_reception"`
	FournisseurID   int64        `json:"fournisseur_id"`
	Fournisseur     *Fournisseur `json:"fournisseur,omitempty"`
	TypeProduit     string       `json:"type_produit"`
	PoidsBrut       *float64     `json:"poids_brut,omitempty"`
	PoidsNet        *float64     `json:"poids_net,omitempty"`
	DateReception   *time.Time   `json:"date_reception,omitempty"`
	Statut          Status       `json:"statut"`
	Observations    *string      `json:"observations,omitempty"`
	Createur        *User        `json:"createur,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Transaction represents a general-ledger movement
type Transaction struct {
	ID           int64            `json:"id"`
	Reference    string           `json:"reference"`
	Type         string           `json:"type"`
	Montant      *decimal.Decimal `json:"montant,omitempty"`
	ModePaiement *string          `json:"mode_paiement,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Date         *time.Time       `json:"date,omitempty"`
	Createur     *User            `json:"createur,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Agregage represents a lot of finished product offered for sale
type Agregage struct {
	ID                 int64            `json:"id"`
	NumeroLot          string           `json:"numero_lot"`
	Produit            string           `json:"produit"`
	Acheteur           *string          `json:"acheteur,omitempty"`
	Contact            *string          `json:"contact,omitempty"`
	QuantiteDisponible *float64         `json:"quantite_disponible,omitempty"`
	QuantiteRestant    *float64         `json:"quantite_restant,omitempty"`
	PrixUnitaire       *decimal.Decimal `json:"prix_unitaire,omitempty"`
	Statut             Status           `json:"statut"`
	Observations       *string          `json:"observations,omitempty"`
	Createur           *User            `json:"createur,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

func (d Destinataire) RecordID() int64 { return d.ID }
func (f Fournisseur) RecordID() int64  { return f.ID }
func (d Distillation) RecordID() int64 { return d.ID }
func (e Expedition) RecordID() int64   { return e.ID }
func (r Reception) RecordID() int64    { return r.ID }
func (t Transaction) RecordID() int64  { return t.ID }
func (a Agregage) RecordID() int64     { return a.ID }

// Valeur returns the sale value of the remaining quantity of a lot.
func (a Agregage) Valeur() *decimal.Decimal {
	if a.PrixUnitaire == nil || a.QuantiteRestant == nil {
		return nil
	}
	v := a.PrixUnitaire.Mul(decimal.NewFromFloat(*a.QuantiteRestant))
	return &v
}

// Signed returns the ledger amount, negative for outgoing movements.
func (t Transaction) Signed() *decimal.Decimal {
	if t.Montant == nil {
		return nil
	}
	if t.Type == TransactionSortie {
		v := t.Montant.Neg()
		return &v
	}
	return t.Montant
}

// Solde is the cash position reported by the backend dashboard
type Solde struct {
	Solde       decimal.Decimal `json:"solde"`
	TotalEntree decimal.Decimal `json:"total_entree"`
	TotalSortie decimal.Decimal `json:"total_sortie"`
}

// StockLine is the available stock of one product
type StockLine struct {
	Produit  string  `json:"produit"`
	Quantite float64 `json:"quantite"`
	Unite    string  `json:"unite,omitempty"`
}

// Stats holds the dashboard counters reported by the backend
type Stats struct {
	Distillations       int `json:"distillations"`
	DistillationsActive int `json:"distillations_actives"`
	Expeditions         int `json:"expeditions"`
	ExpeditionsPending  int `json:"expeditions_en_attente"`
	Receptions          int `json:"receptions"`
	ReceptionsPending   int `json:"receptions_en_attente"`
	Agregages           int `json:"agregages"`
	Fournisseurs        int `json:"fournisseurs"`
	Destinataires       int `json:"destinataires"`
}
