package testutil

import (
	"github.com/roach88/qassist/internal/ir"
)

// InventoryTable returns a small quality-inspection inventory snapshot.
//
//	material_name  status  qty  supplier  batch_no
//	螺栓           risk    40   华东      BATCH-2024-001
//	垫片           normal  300  华南      BATCH-2024-002
//	电池           risk    12   华东      BATCH-2024-003
func InventoryTable() ir.Table {
	row := func(name, status string, qty float64, supplier, batch string) ir.Record {
		return ir.NewRecord(
			ir.F("material_name", ir.String(name)),
			ir.F("status", ir.String(status)),
			ir.F("qty", ir.Number(qty)),
			ir.F("supplier", ir.String(supplier)),
			ir.F("batch_no", ir.String(batch)),
		)
	}
	return ir.Table{Name: "inventory", Records: []ir.Record{
		row("螺栓", "risk", 40, "华东", "BATCH-2024-001"),
		row("垫片", "normal", 300, "华南", "BATCH-2024-002"),
		row("电池", "risk", 12, "华东", "BATCH-2024-003"),
	}}
}

// InventoryTables wraps InventoryTable in a snapshot.
func InventoryTables() *ir.TableStore {
	return ir.NewTableStore(InventoryTable())
}

// InventoryRules returns active rules over InventoryTable, in load order.
func InventoryRules() []ir.Rule {
	return []ir.Rule{
		{
			IntentName:   "risk_stock",
			TriggerWords: []string{"风险", "库存"},
			Category:     "inventory",
			Priority:     1,
			Status:       ir.StatusActive,
			Template:     "SELECT material_name, qty FROM inventory WHERE status = 'risk' ORDER BY material_name",
		},
		{
			IntentName:   "supplier_stock",
			TriggerWords: []string{"供应商", "库存"},
			Category:     "inventory",
			Status:       ir.StatusActive,
			Template:     "SELECT material_name, qty FROM inventory WHERE supplier = ? ORDER BY qty",
		},
		{
			IntentName:   "batch_trace",
			TriggerWords: []string{"批次", "追溯"},
			Category:     "high_priority",
			Status:       ir.StatusActive,
			Template:     "SELECT batch_no, material_name, supplier FROM inventory WHERE batch_no = ?",
		},
		{
			IntentName:   "stock_total",
			TriggerWords: []string{"总数", "统计"},
			Category:     "inventory",
			Status:       ir.StatusActive,
			Template:     "SELECT COUNT(*) AS total, SUM(qty) AS qty_sum FROM inventory",
		},
	}
}
