package domain

import "testing"

func line(id, productID, color, size string, price float64, qty int) CartItem {
	return CartItem{ID: id, ProductID: productID, Name: "Item " + productID, Price: price, Color: color, Size: size, Quantity: qty}
}

func TestCart_AddItemMergesSameLine(t *testing.T) {
	c := NewCart()
	if _, err := c.AddItem(line("l1", "p1", "black", "M", 45, 1)); err != nil {
		t.Fatal(err)
	}
	merged, err := c.AddItem(line("l2", "p1", "black", "M", 45, 1))
	if err != nil {
		t.Fatal(err)
	}

	if len(c.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Items))
	}
	if merged.ID != "l1" || merged.Quantity != 2 {
		t.Errorf("merged line = %+v", merged)
	}
	if c.Total != 90 {
		t.Errorf("total = %v, want 90", c.Total)
	}
}

func TestCart_AddItemDistinctLines(t *testing.T) {
	c := NewCart()
	c.AddItem(line("l1", "p1", "black", "M", 45, 1))
	c.AddItem(line("l2", "p1", "white", "M", 45, 1))
	c.AddItem(line("l3", "p1", "black", "L", 45, 2))
	c.AddItem(line("l4", "p2", "black", "M", 60, 1))

	if len(c.Items) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(c.Items))
	}
	if c.ItemCount() != 5 {
		t.Errorf("item count = %d, want 5", c.ItemCount())
	}
	if c.Total != 240 {
		t.Errorf("total = %v, want 240", c.Total)
	}
}

func TestCart_AddItemRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		item CartItem
	}{
		{"missing product", line("l1", "", "black", "M", 45, 1)},
		{"zero quantity", line("l1", "p1", "black", "M", 45, 0)},
		{"negative price", line("l1", "p1", "black", "M", -1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCart()
			if _, err := c.AddItem(tt.item); !IsCode(err, EINVALID) {
				t.Errorf("expected invalid_argument, got %v", err)
			}
			if len(c.Items) != 0 {
				t.Error("cart should be unchanged")
			}
		})
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := NewCart()
	c.AddItem(line("l1", "p1", "black", "M", 45, 1))
	c.AddItem(line("l2", "p2", "black", "M", 60, 1))

	if !c.UpdateQuantity("l1", 3) {
		t.Fatal("expected l1 to exist")
	}
	if c.Total != 195 {
		t.Errorf("total = %v, want 195", c.Total)
	}
	if !c.UpdateQuantity("l2", 0) {
		t.Fatal("expected l2 to be removed")
	}
	if len(c.Items) != 1 || c.Total != 135 {
		t.Errorf("after removal: items=%d total=%v", len(c.Items), c.Total)
	}
	if c.UpdateQuantity("missing", 2) {
		t.Error("unknown line should report false")
	}
}

func TestCart_RemoveClearToggle(t *testing.T) {
	c := NewCart()
	c.AddItem(line("l1", "p1", "black", "M", 45, 1))

	if c.RemoveItem("missing") {
		t.Error("removing unknown line should report false")
	}
	if !c.RemoveItem("l1") || c.Total != 0 {
		t.Errorf("remove failed: %+v", c)
	}

	c.AddItem(line("l2", "p1", "black", "M", 45, 2))
	c.Clear()
	if len(c.Items) != 0 || c.Total != 0 {
		t.Errorf("clear failed: %+v", c)
	}

	c.ToggleOpen()
	if !c.IsOpen {
		t.Error("expected cart to be open")
	}
	c.ToggleOpen()
	if c.IsOpen {
		t.Error("expected cart to be closed")
	}
}
