// Package catalog holds the list-view definition of every supply-chain entity.
package catalog

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/models"
)

// Entity names, also used as backend collection paths
const (
	Destinataires = "destinataires"
	Fournisseurs  = "fournisseurs"
	Distillations = "distillations"
	Expeditions   = "expeditions"
	Receptions    = "receptions"
	Transactions  = "transactions"
	Agregages     = "agregages"
)

// Transition actions
const (
	ActionStart    = "start"
	ActionComplete = "complete"
	ActionReceive  = "receive"
	ActionValidate = "validate"
	ActionReject   = "reject"
	ActionPay      = "pay"
)

// ErrUnknownEntity is returned for an entity name that is not registered
var ErrUnknownEntity = errors.New("unknown entity")

var names = []string{
	Destinataires,
	Fournisseurs,
	Distillations,
	Expeditions,
	Receptions,
	Transactions,
	Agregages,
}

// references lists the collections a form of the entity needs next to its own list
var references = map[string][]string{
	Expeditions:   {Destinataires},
	Receptions:    {Fournisseurs},
	Distillations: {Receptions},
}

// Names returns the registered entity names in menu order.
func Names() []string {
	return append([]string(nil), names...)
}

// Known reports whether entity is registered.
func Known(entity string) bool {
	for _, n := range names {
		if n == entity {
			return true
		}
	}
	return false
}

// References returns the reference lists loaded alongside entity.
func References(entity string) []string {
	return append([]string(nil), references[entity]...)
}

func st(s models.Status) listview.Status { return listview.Status(s) }

// DestinataireSpec describes the consignee list
func DestinataireSpec() *listview.Spec[models.Destinataire] {
	return &listview.Spec[models.Destinataire]{
		Entity: Destinataires,
		Title:  "Liste des destinataires",
		SearchFields: []listview.SearchField[models.Destinataire]{
			{Name: "nom", Value: func(d models.Destinataire) string { return d.Nom }},
			{Name: "prenom", Value: func(d models.Destinataire) string { return str(d.Prenom) }},
			{Name: "societe", Value: func(d models.Destinataire) string { return str(d.Societe) }},
			{Name: "contact", Value: func(d models.Destinataire) string { return d.Contact }},
			{Name: "email", Value: func(d models.Destinataire) string { return str(d.Email) }},
			{Name: "observations", Value: func(d models.Destinataire) string { return str(d.Observations) }},
		},
		Columns: []listview.Column[models.Destinataire]{
			{Label: "Nom", Width: 50, Cell: func(d models.Destinataire) string { return fullName(d.Nom, d.Prenom) }},
			{Label: "Société", Width: 50, Cell: func(d models.Destinataire) string { return str(d.Societe) }},
			{Label: "Contact", Width: 35, Cell: func(d models.Destinataire) string { return d.Contact }},
			{Label: "Email", Width: 60, Cell: func(d models.Destinataire) string { return str(d.Email) }},
			{Label: "Adresse", Width: 70, Cell: func(d models.Destinataire) string { return str(d.Adresse) }},
		},
	}
}

// FournisseurSpec describes the supplier list
func FournisseurSpec() *listview.Spec[models.Fournisseur] {
	return &listview.Spec[models.Fournisseur]{
		Entity: Fournisseurs,
		Title:  "Liste des fournisseurs",
		SearchFields: []listview.SearchField[models.Fournisseur]{
			{Name: "nom", Value: func(f models.Fournisseur) string { return f.Nom }},
			{Name: "prenom", Value: func(f models.Fournisseur) string { return str(f.Prenom) }},
			{Name: "identification", Value: func(f models.Fournisseur) string { return str(f.Identification) }},
			{Name: "contact", Value: func(f models.Fournisseur) string { return f.Contact }},
			{Name: "localisation", Value: func(f models.Fournisseur) string { return str(f.Localisation) }},
			{Name: "observations", Value: func(f models.Fournisseur) string { return str(f.Observations) }},
		},
		Columns: []listview.Column[models.Fournisseur]{
			{Label: "Nom", Width: 55, Cell: func(f models.Fournisseur) string { return fullName(f.Nom, f.Prenom) }},
			{Label: "CIN", Width: 40, Cell: func(f models.Fournisseur) string { return str(f.Identification) }},
			{Label: "Contact", Width: 35, Cell: func(f models.Fournisseur) string { return f.Contact }},
			{Label: "Localisation", Width: 60, Cell: func(f models.Fournisseur) string { return str(f.Localisation) }},
			{Label: "Observations", Width: 75, Cell: func(f models.Fournisseur) string { return str(f.Observations) }},
		},
	}
}

// DistillationSpec describes the distillation batches
func DistillationSpec() *listview.Spec[models.Distillation] {
	return &listview.Spec[models.Distillation]{
		Entity: Distillations,
		Title:  "Suivi des distillations",
		SearchFields: []listview.SearchField[models.Distillation]{
			{Name: "numero", Value: func(d models.Distillation) string { return d.Numero }},
			{Name: "matiere_premiere", Value: func(d models.Distillation) string { return d.MatierePremiere }},
			{Name: "site", Value: func(d models.Distillation) string {
				if d.Site == nil {
					return ""
				}
				return d.Site.Nom
			}},
			{Name: "observations", Value: func(d models.Distillation) string { return str(d.Observations) }},
		},
		Status:           func(d models.Distillation) listview.Status { return st(d.Statut) },
		Statuses:         []listview.Status{st(models.StatusPending), st(models.StatusInProgress), st(models.StatusCompleted)},
		DefaultPartition: st(models.StatusPending),
		Transitions: map[listview.Status][]listview.Transition{
			st(models.StatusPending):    {{Action: ActionStart, To: st(models.StatusInProgress)}},
			st(models.StatusInProgress): {{Action: ActionComplete, To: st(models.StatusCompleted)}},
		},
		Selectable: func(d models.Distillation) bool { return d.Statut != models.StatusCompleted },
		Quantities: []listview.Quantity[models.Distillation]{
			{Name: "quantite_matiere", Value: func(d models.Distillation) *float64 { return d.QuantiteMatiere }},
			{Name: "quantite_resultat", Value: func(d models.Distillation) *float64 { return d.QuantiteResultat }},
		},
		Columns: []listview.Column[models.Distillation]{
			{Label: "N°", Width: 30, Cell: func(d models.Distillation) string { return d.Numero }},
			{Label: "Site", Width: 45, Cell: func(d models.Distillation) string {
				if d.Site == nil {
					return ""
				}
				return d.Site.Nom
			}},
			{Label: "Matière première", Width: 50, Cell: func(d models.Distillation) string { return d.MatierePremiere }},
			{Label: "Qté matière (kg)", Width: 35, Cell: func(d models.Distillation) string { return number(d.QuantiteMatiere) }},
			{Label: "Qté huile (kg)", Width: 35, Cell: func(d models.Distillation) string { return number(d.QuantiteResultat) }},
			{Label: "Début", Width: 30, Cell: func(d models.Distillation) string { return date(d.DateDebut) }},
			{Label: "Statut", Width: 30, Cell: func(d models.Distillation) string { return StatusLabel(d.Statut) }},
		},
	}
}

// ExpeditionSpec describes the shipments. Only pending shipments can be
// selected, the bulk action being the confirmation of receipt.
func ExpeditionSpec() *listview.Spec[models.Expedition] {
	return &listview.Spec[models.Expedition]{
		Entity: Expeditions,
		Title:  "Liste des expéditions",
		SearchFields: []listview.SearchField[models.Expedition]{
			{Name: "numero_bordereau", Value: func(e models.Expedition) string { return e.NumeroBordereau }},
			{Name: "destinataire", Value: func(e models.Expedition) string {
				if e.Destinataire == nil {
					return ""
				}
				return fullName(e.Destinataire.Nom, e.Destinataire.Prenom)
			}},
			{Name: "chauffeur", Value: func(e models.Expedition) string { return str(e.Chauffeur) }},
			{Name: "vehicule", Value: func(e models.Expedition) string { return str(e.Vehicule) }},
			{Name: "type_produit", Value: func(e models.Expedition) string { return e.TypeProduit }},
			{Name: "observations", Value: func(e models.Expedition) string { return str(e.Observations) }},
		},
		Status:           func(e models.Expedition) listview.Status { return st(e.Statut) },
		Statuses:         []listview.Status{st(models.StatusPending), st(models.StatusReceived)},
		DefaultPartition: st(models.StatusPending),
		Transitions: map[listview.Status][]listview.Transition{
			st(models.StatusPending): {{Action: ActionReceive, To: st(models.StatusReceived)}},
		},
		Selectable: func(e models.Expedition) bool { return e.Statut == models.StatusPending },
		Quantities: []listview.Quantity[models.Expedition]{
			{Name: "quantite", Value: func(e models.Expedition) *float64 { return e.Quantite }},
			{Name: "poids", Value: func(e models.Expedition) *float64 { return e.Poids }},
		},
		Columns: []listview.Column[models.Expedition]{
			{Label: "Bordereau", Width: 35, Cell: func(e models.Expedition) string { return e.NumeroBordereau }},
			{Label: "Destinataire", Width: 50, Cell: func(e models.Expedition) string {
				if e.Destinataire == nil {
					return ""
				}
				return fullName(e.Destinataire.Nom, e.Destinataire.Prenom)
			}},
			{Label: "Produit", Width: 45, Cell: func(e models.Expedition) string { return e.TypeProduit }},
			{Label: "Quantité", Width: 25, Cell: func(e models.Expedition) string { return number(e.Quantite) }},
			{Label: "Poids (kg)", Width: 25, Cell: func(e models.Expedition) string { return number(e.Poids) }},
			{Label: "Chauffeur", Width: 40, Cell: func(e models.Expedition) string { return str(e.Chauffeur) }},
			{Label: "Date", Width: 25, Cell: func(e models.Expedition) string { return date(e.DateExpedition) }},
			{Label: "Statut", Width: 25, Cell: func(e models.Expedition) string { return StatusLabel(e.Statut) }},
		},
	}
}

// ReceptionSpec describes the receptions of raw material
func ReceptionSpec() *listview.Spec[models.Reception] {
	return &listview.Spec[models.Reception]{
		Entity: Receptions,
		Title:  "Liste des réceptions",
		SearchFields: []listview.SearchField[models.Reception]{
			{Name: "numero_reception", Value: func(r models.Reception) string { return r.NumeroReception }},
			{Name: "fournisseur", Value: func(r models.Reception) string {
				if r.Fournisseur == nil {
					return ""
				}
				return fullName(r.Fournisseur.Nom, r.Fournisseur.Prenom)
			}},
			{Name: "contact", Value: func(r models.Reception) string {
				if r.Fournisseur == nil {
					return ""
				}
				return r.Fournisseur.Contact
			}},
			{Name: "type_produit", Value: func(r models.Reception) string { return r.TypeProduit }},
			{Name: "observations", Value: func(r models.Reception) string { return str(r.Observations) }},
		},
		Status:           func(r models.Reception) listview.Status { return st(r.Statut) },
		Statuses:         []listview.Status{st(models.StatusPending), st(models.StatusReceived)},
		DefaultPartition: st(models.StatusPending),
		Transitions: map[listview.Status][]listview.Transition{
			st(models.StatusPending): {{Action: ActionReceive, To: st(models.StatusReceived)}},
		},
		Selectable: func(r models.Reception) bool { return r.Statut == models.StatusPending },
		Quantities: []listview.Quantity[models.Reception]{
			{Name: "poids_brut", Value: func(r models.Reception) *float64 { return r.PoidsBrut }},
			{Name: "poids_net", Value: func(r models.Reception) *float64 { return r.PoidsNet }},
		},
		Columns: []listview.Column[models.Reception]{
			{Label: "N°", Width: 30, Cell: func(r models.Reception) string { return r.NumeroReception }},
			{Label: "Fournisseur", Width: 55, Cell: func(r models.Reception) string {
				if r.Fournisseur == nil {
					return ""
				}
				return fullName(r.Fournisseur.Nom, r.Fournisseur.Prenom)
			}},
			{Label: "Produit", Width: 50, Cell: func(r models.Reception) string { return r.TypeProduit }},
			{Label: "Poids brut (kg)", Width: 30, Cell: func(r models.Reception) string { return number(r.PoidsBrut) }},
			{Label: "Poids net (kg)", Width: 30, Cell: func(r models.Reception) string { return number(r.PoidsNet) }},
			{Label: "Date", Width: 30, Cell: func(r models.Reception) string { return date(r.DateReception) }},
			{Label: "Statut", Width: 25, Cell: func(r models.Reception) string { return StatusLabel(r.Statut) }},
		},
	}
}

// TransactionSpec describes the general ledger
func TransactionSpec() *listview.Spec[models.Transaction] {
	return &listview.Spec[models.Transaction]{
		Entity: Transactions,
		Title:  "Journal des transactions",
		SearchFields: []listview.SearchField[models.Transaction]{
			{Name: "reference", Value: func(t models.Transaction) string { return t.Reference }},
			{Name: "type", Value: func(t models.Transaction) string { return t.Type }},
			{Name: "mode_paiement", Value: func(t models.Transaction) string { return str(t.ModePaiement) }},
			{Name: "description", Value: func(t models.Transaction) string { return str(t.Description) }},
		},
		Amounts: []listview.Amount[models.Transaction]{
			{Name: "montant", Value: func(t models.Transaction) *decimal.Decimal { return t.Montant }},
			{Name: "solde", Value: func(t models.Transaction) *decimal.Decimal { return t.Signed() }},
		},
		Columns: []listview.Column[models.Transaction]{
			{Label: "Référence", Width: 40, Cell: func(t models.Transaction) string { return t.Reference }},
			{Label: "Type", Width: 25, Cell: func(t models.Transaction) string { return t.Type }},
			{Label: "Montant (Ar)", Width: 40, Cell: func(t models.Transaction) string { return money(t.Montant) }},
			{Label: "Paiement", Width: 35, Cell: func(t models.Transaction) string { return str(t.ModePaiement) }},
			{Label: "Description", Width: 90, Cell: func(t models.Transaction) string { return str(t.Description) }},
			{Label: "Date", Width: 30, Cell: func(t models.Transaction) string { return date(t.Date) }},
		},
	}
}

// AgregageSpec describes the sales lots. Only lots awaiting validation can be
// selected for bulk validation.
func AgregageSpec() *listview.Spec[models.Agregage] {
	return &listview.Spec[models.Agregage]{
		Entity: Agregages,
		Title:  "Agrégation des ventes",
		SearchFields: []listview.SearchField[models.Agregage]{
			{Name: "numero_lot", Value: func(a models.Agregage) string { return a.NumeroLot }},
			{Name: "produit", Value: func(a models.Agregage) string { return a.Produit }},
			{Name: "acheteur", Value: func(a models.Agregage) string { return str(a.Acheteur) }},
			{Name: "contact", Value: func(a models.Agregage) string { return str(a.Contact) }},
			{Name: "observations", Value: func(a models.Agregage) string { return str(a.Observations) }},
		},
		Status: func(a models.Agregage) listview.Status { return st(a.Statut) },
		Statuses: []listview.Status{
			st(models.StatusPendingValidation),
			st(models.StatusValidated),
			st(models.StatusRejected),
			st(models.StatusPaid),
		},
		DefaultPartition: st(models.StatusPendingValidation),
		Transitions: map[listview.Status][]listview.Transition{
			st(models.StatusPendingValidation): {
				{Action: ActionValidate, To: st(models.StatusValidated)},
				{Action: ActionReject, To: st(models.StatusRejected)},
			},
			st(models.StatusValidated): {{Action: ActionPay, To: st(models.StatusPaid)}},
		},
		Selectable: func(a models.Agregage) bool { return a.Statut == models.StatusPendingValidation },
		Quantities: []listview.Quantity[models.Agregage]{
			{Name: "quantite_disponible", Value: func(a models.Agregage) *float64 { return a.QuantiteDisponible }},
			{Name: "quantite_restant", Value: func(a models.Agregage) *float64 { return a.QuantiteRestant }},
		},
		Amounts: []listview.Amount[models.Agregage]{
			{Name: "valeur", Value: func(a models.Agregage) *decimal.Decimal { return a.Valeur() }},
		},
		Remaining: &listview.Remaining[models.Agregage]{
			Available: func(a models.Agregage) *float64 { return a.QuantiteDisponible },
			Remaining: func(a models.Agregage) *float64 { return a.QuantiteRestant },
		},
		Columns: []listview.Column[models.Agregage]{
			{Label: "Lot", Width: 30, Cell: func(a models.Agregage) string { return a.NumeroLot }},
			{Label: "Produit", Width: 50, Cell: func(a models.Agregage) string { return a.Produit }},
			{Label: "Acheteur", Width: 50, Cell: func(a models.Agregage) string { return str(a.Acheteur) }},
			{Label: "Disponible (kg)", Width: 30, Cell: func(a models.Agregage) string { return number(a.QuantiteDisponible) }},
			{Label: "Restant (kg)", Width: 30, Cell: func(a models.Agregage) string { return number(a.QuantiteRestant) }},
			{Label: "Prix unitaire (Ar)", Width: 35, Cell: func(a models.Agregage) string { return money(a.PrixUnitaire) }},
			{Label: "Statut", Width: 30, Cell: func(a models.Agregage) string { return StatusLabel(a.Statut) }},
		},
	}
}
