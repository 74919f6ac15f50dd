package pharmacy

// seed loads the fixed catalog: inventory, drug information and the known
// prescription references.
func (s *Store) seed() {
	s.addInventory(InventoryItem{Name: "Paracetamol 500mg Tablets", Stock: 100, RequiresPrescription: false})
	s.addInventory(InventoryItem{Name: "Amoxicillin 250mg Capsules", Stock: 50, RequiresPrescription: true})
	s.addInventory(InventoryItem{Name: "Ibuprofen 200mg Tablets", Stock: 0, RequiresPrescription: false})
	s.addInventory(InventoryItem{Name: "Lisinopril 10mg Tablets", Stock: 75, RequiresPrescription: true})

	s.addDrugInfo(DrugInfo{
		Name:              "Paracetamol 500mg Tablets",
		Usage:             "For mild to moderate pain relief and fever reduction.",
		SideEffects:       "Generally well-tolerated. Rare side effects include allergic reactions.",
		Contraindications: "Severe liver disease.",
		Notes:             "Follow dosage instructions carefully.",
	})
	s.addDrugInfo(DrugInfo{
		Name:              "Amoxicillin 250mg Capsules",
		Usage:             "Antibiotic for treating bacterial infections.",
		SideEffects:       "Common: Nausea, rash, diarrhea. Seek medical attention for severe reactions.",
		Contraindications: "Known allergy to penicillin.",
		Notes:             "Complete the full course as prescribed by your doctor.",
	})
	s.addDrugInfo(DrugInfo{
		Name:              "Lisinopril 10mg Tablets",
		Usage:             "Treats high blood pressure and heart failure.",
		SideEffects:       "Common: Dizziness, cough, headache. Report persistent side effects to your doctor.",
		Contraindications: "History of angioedema, pregnancy.",
		Notes:             "Take as directed by your healthcare provider.",
	})

	s.prescriptions["RX12345"] = true
	s.prescriptions["RX67890"] = false
}
