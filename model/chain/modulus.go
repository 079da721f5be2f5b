package chain

// zerocoinModulus is the RSA modulus shared by all networks.
const zerocoinModulus = "4414577713783604366202070759555626401852595263443278931951378636564391212070759555626401852588078462" +
	"5613390641249514183472702618963750149718246911508220348039433403710138094059686478347270261896375014" +
	"9718246911650776133798590957000973304597488084284017974291006424586918171345867834534537977896735345" +
	"6467998754918242243363725908514148808428401797429100642458691818654620435767984233871847744479207399" +
	"3787834345676576056201619676256133234224493481712577246796292638635637328974634234234844143603833904" +
	"4149526344321902024679629263863563732899121548807891212010346133798590957000973304391210957000973304" +
	"52010397220720357"
