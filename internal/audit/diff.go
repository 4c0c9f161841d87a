package audit

import (
	"homestock/internal/models"
)

// Snapshots carry the trackable fields of an entity, resolved to display
// values (cabinet and category references become names). The diff never
// inspects entity structs directly; services build a snapshot before and
// after the mutation and hand both here.

type ItemSnapshot struct {
	Name          string
	Description   *string
	Photo         *string
	Quantity      int
	MinStockAlert int
	CabinetName   *string // primary location display name, nil when unassigned
	CategoryName  *string
}

type CabinetSnapshot struct {
	Name     string
	RoomName *string
}

type CategorySnapshot struct {
	Path string // level names root-first, joined with ";"
}

// Diff is the set of fields that actually differ between two snapshots, each
// captured as an (old, new) pair of display-ready values. An empty diff is a
// valid result, not an error; recording policy for it lives in the Recorder.
type Diff struct {
	fields []int16
	apply  []func(*models.Record)
}

func (d Diff) Empty() bool { return len(d.fields) == 0 }

func (d Diff) Fields() []int16 { return d.fields }

// Has reports whether the given field tag is part of the diff.
func (d Diff) Has(field int16) bool {
	for _, f := range d.fields {
		if f == field {
			return true
		}
	}
	return false
}

func (d Diff) applyTo(r *models.Record) {
	for _, fn := range d.apply {
		fn(r)
	}
}

// The field registries below are the fixed tables the diff iterates: one
// entry per trackable field with a comparison and the record columns it
// writes. Adding a trackable field means adding one entry here.

type itemField struct {
	tag     int16
	changed func(old, new *ItemSnapshot) bool
	record  func(r *models.Record, old, new *ItemSnapshot)
}

var itemFields = []itemField{
	{
		tag:     models.FieldName,
		changed: func(o, n *ItemSnapshot) bool { return o.Name != n.Name },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.ItemNameOld, r.ItemNameNew = &o.Name, &n.Name
		},
	},
	{
		tag:     models.FieldDescription,
		changed: func(o, n *ItemSnapshot) bool { return !strPtrEqual(o.Description, n.Description) },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.ItemDescriptionOld, r.ItemDescriptionNew = o.Description, n.Description
		},
	},
	{
		tag:     models.FieldPhoto,
		changed: func(o, n *ItemSnapshot) bool { return !strPtrEqual(o.Photo, n.Photo) },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.ItemPhotoOld, r.ItemPhotoNew = o.Photo, n.Photo
		},
	},
	{
		tag:     models.FieldQuantity,
		changed: func(o, n *ItemSnapshot) bool { return o.Quantity != n.Quantity },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.QuantityCountOld, r.QuantityCountNew = &o.Quantity, &n.Quantity
		},
	},
	{
		tag:     models.FieldMinStockAlert,
		changed: func(o, n *ItemSnapshot) bool { return o.MinStockAlert != n.MinStockAlert },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.MinStockCountOld, r.MinStockCountNew = &o.MinStockAlert, &n.MinStockAlert
		},
	},
	{
		tag:     models.FieldMove,
		changed: func(o, n *ItemSnapshot) bool { return !strPtrEqual(o.CabinetName, n.CabinetName) },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.CabinetNameOld, r.CabinetNameNew = o.CabinetName, n.CabinetName
		},
	},
	{
		tag:     models.FieldCategory,
		changed: func(o, n *ItemSnapshot) bool { return !strPtrEqual(o.CategoryName, n.CategoryName) },
		record: func(r *models.Record, o, n *ItemSnapshot) {
			r.CategoryNameOld, r.CategoryNameNew = o.CategoryName, n.CategoryName
		},
	},
}

type cabinetField struct {
	tag     int16
	changed func(old, new *CabinetSnapshot) bool
	record  func(r *models.Record, old, new *CabinetSnapshot)
}

var cabinetFields = []cabinetField{
	{
		tag:     models.FieldName,
		changed: func(o, n *CabinetSnapshot) bool { return o.Name != n.Name },
		record: func(r *models.Record, o, n *CabinetSnapshot) {
			r.CabinetNameOld, r.CabinetNameNew = &o.Name, &n.Name
		},
	},
	{
		tag:     models.FieldMove,
		changed: func(o, n *CabinetSnapshot) bool { return !strPtrEqual(o.RoomName, n.RoomName) },
		record: func(r *models.Record, o, n *CabinetSnapshot) {
			r.RoomNameOld, r.RoomNameNew = o.RoomName, n.RoomName
		},
	},
}

// CompareItems walks the item field registry and returns the changed subset.
func CompareItems(old, new *ItemSnapshot) Diff {
	var d Diff
	for _, f := range itemFields {
		if !f.changed(old, new) {
			continue
		}
		f := f
		d.fields = append(d.fields, f.tag)
		d.apply = append(d.apply, func(r *models.Record) { f.record(r, old, new) })
	}
	return d
}

func CompareCabinets(old, new *CabinetSnapshot) Diff {
	var d Diff
	for _, f := range cabinetFields {
		if !f.changed(old, new) {
			continue
		}
		f := f
		d.fields = append(d.fields, f.tag)
		d.apply = append(d.apply, func(r *models.Record) { f.record(r, old, new) })
	}
	return d
}

// CompareCategories diffs the full level path, so a rename anywhere in the
// chain reads as "Kitchen;Drawer" -> "Kitchen;Shelf".
func CompareCategories(old, new *CategorySnapshot) Diff {
	var d Diff
	if old.Path != new.Path {
		d.fields = append(d.fields, models.FieldName)
		d.apply = append(d.apply, func(r *models.Record) {
			r.CategoryNameOld, r.CategoryNameNew = &old.Path, &new.Path
		})
	}
	return d
}

// Classify maps a diff plus lifecycle flags to the record's operation tag and
// changed-field set. Create and delete ignore the diff entirely.
func Classify(d Diff, isCreate, isDelete bool) (int16, []int16) {
	switch {
	case isCreate:
		return models.OperateCreate, nil
	case isDelete:
		return models.OperateDelete, nil
	default:
		return models.OperateModify, d.Fields()
	}
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
