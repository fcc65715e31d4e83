package auth

// Operation names a guarded action. The role table below is part of the
// external contract and changes only deliberately.
type Operation string

const (
	OpPatientsRead   Operation = "patients.read"
	OpPatientsCreate Operation = "patients.create"
	OpPatientsUpdate Operation = "patients.update"
	OpPatientsDelete Operation = "patients.delete"

	OpAppointmentsRead   Operation = "appointments.read"
	OpAppointmentsCreate Operation = "appointments.create"
	OpAppointmentsUpdate Operation = "appointments.update"
	OpAppointmentsDelete Operation = "appointments.delete"

	OpPharmacyRead   Operation = "pharmacy.read"
	OpPharmacyCreate Operation = "pharmacy.create"
	OpPharmacyUpdate Operation = "pharmacy.update"
	OpPharmacyDelete Operation = "pharmacy.delete"

	OpLaboratoryRead  Operation = "laboratory.read"
	OpLaboratoryWrite Operation = "laboratory.write"

	OpRadiologyRead  Operation = "radiology.read"
	OpRadiologyWrite Operation = "radiology.write"

	OpSuppliesRead  Operation = "supplies.read"
	OpSuppliesWrite Operation = "supplies.write"

	OpFacilityRead  Operation = "facility.read"
	OpFacilityWrite Operation = "facility.write"

	OpUsersManage Operation = "users.manage"

	OpDashboardAdmin        Operation = "dashboard.admin"
	OpDashboardSupplies     Operation = "dashboard.supplies"
	OpDashboardDoctor       Operation = "dashboard.doctor"
	OpDashboardNurse        Operation = "dashboard.nurse"
	OpDashboardReceptionist Operation = "dashboard.receptionist"
	OpDashboardLaboratory   Operation = "dashboard.laboratory"
	OpDashboardRadiology    Operation = "dashboard.radiology"
	OpDashboardPharmacy     Operation = "dashboard.pharmacy"
	OpDashboardPatient      Operation = "dashboard.patient"

	OpSelf Operation = "self"
)

var (
	staff = Roles(RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist,
		RoleChemist, RoleRadiologist, RolePharmacist)
	frontDesk = Roles(RoleAdmin, RoleReceptionist)
)

var policy = map[Operation]RoleSet{
	OpPatientsRead:   staff,
	OpPatientsCreate: frontDesk,
	OpPatientsUpdate: staff,
	OpPatientsDelete: frontDesk,

	OpAppointmentsRead:   Roles(RoleAdmin, RoleReceptionist, RoleDoctor),
	OpAppointmentsCreate: frontDesk,
	OpAppointmentsUpdate: Roles(RoleAdmin, RoleReceptionist, RoleDoctor),
	OpAppointmentsDelete: frontDesk,

	OpPharmacyRead:   Roles(RoleAdmin, RoleReceptionist, RolePharmacist),
	OpPharmacyCreate: Roles(RoleAdmin, RoleReceptionist, RolePharmacist),
	OpPharmacyUpdate: Roles(RoleAdmin, RoleReceptionist, RolePharmacist),
	OpPharmacyDelete: frontDesk,

	OpLaboratoryRead:  Roles(RoleAdmin, RoleReceptionist, RoleChemist),
	OpLaboratoryWrite: Roles(RoleAdmin, RoleReceptionist, RoleChemist),

	OpRadiologyRead:  Roles(RoleAdmin, RoleReceptionist, RoleRadiologist),
	OpRadiologyWrite: Roles(RoleAdmin, RoleReceptionist, RoleRadiologist),

	OpSuppliesRead:  frontDesk,
	OpSuppliesWrite: frontDesk,

	OpFacilityRead:  staff,
	OpFacilityWrite: Roles(RoleAdmin),

	OpUsersManage: Roles(RoleAdmin),

	OpDashboardAdmin:        Roles(RoleAdmin),
	OpDashboardSupplies:     Roles(RoleAdmin),
	OpDashboardDoctor:       Roles(RoleDoctor),
	OpDashboardNurse:        Roles(RoleNurse),
	OpDashboardReceptionist: Roles(RoleReceptionist),
	OpDashboardLaboratory:   Roles(RoleChemist),
	OpDashboardRadiology:    Roles(RoleRadiologist),
	OpDashboardPharmacy:     Roles(RolePharmacist),
	OpDashboardPatient:      Roles(RolePatient),

	OpSelf: allRoles,
}

// Allowed returns the roles permitted to perform op. Unknown operations
// allow nobody.
func Allowed(op Operation) RoleSet {
	return policy[op]
}

// Can reports whether role may perform op.
func Can(role Role, op Operation) bool {
	return policy[op].Contains(role)
}
