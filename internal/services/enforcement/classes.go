package enforcement

// Check is a bit set of detectors that apply to an object class.
type Check uint8

const (
	CheckSpeed Check = 1 << iota
	CheckHelmet
	CheckRedLight
)

// COCO class ids emitted by the vehicle tracker.
const (
	ClassBicycle    = 1
	ClassCar        = 2
	ClassMotorcycle = 3
	ClassBus        = 5
	ClassTruck      = 7
)

var classChecks = map[int]Check{
	ClassBicycle:    CheckSpeed | CheckHelmet | CheckRedLight,
	ClassCar:        CheckSpeed | CheckRedLight,
	ClassMotorcycle: CheckSpeed | CheckHelmet | CheckRedLight,
	ClassBus:        CheckSpeed | CheckRedLight,
	ClassTruck:      CheckSpeed | CheckRedLight,
}

// ChecksFor returns the detectors that apply to a class. Unknown classes
// get none.
func ChecksFor(classID int) Check {
	return classChecks[classID]
}

func (c Check) Has(flag Check) bool { return c&flag != 0 }

// VehicleClasses lists the classes the tracker should be asked for.
func VehicleClasses() []int {
	return []int{ClassBicycle, ClassCar, ClassMotorcycle, ClassBus, ClassTruck}
}

var classNames = map[int]string{
	ClassBicycle:    "bicycle",
	ClassCar:        "car",
	ClassMotorcycle: "motorcycle",
	ClassBus:        "bus",
	ClassTruck:      "truck",
}

// ClassName returns the display name of a class id.
func ClassName(classID int) string {
	if name, ok := classNames[classID]; ok {
		return name
	}
	return "unknown"
}
