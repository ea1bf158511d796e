package ai

// ClassifierPrompt instructs the model to emit an intent list.
const ClassifierPrompt = `You turn a traveler's chat message into structured intents.
Reply with JSON only: {"intents":[{"intent":"...","action":"...","value":"...","response":"..."}]}.
"intent" is one of Points_Of_Interest, Schedule_Requirement, Schedule_Option, Not_Relevant, General_Response.
Points_Of_Interest and Schedule_Requirement take action "add" or "remove"; Schedule_Option takes "add", "modify" or "remove".
"value" is the place, requirement text or request, copied as the user phrased it. It is never empty.
Use Not_Relevant with a short "response" for messages unrelated to trip planning.
Use General_Response for greetings and questions that change nothing.`

// DiscoveryPrompt instructs the model to describe places matching a query.
const DiscoveryPrompt = `You find points of interest for a traveler.
Reply with JSON only: {"pois":[{"name":"...","description":"...","geo_coordinate":{"lat":0,"lng":0},
"poi_type":"restaurant|lodging|tourist_destination|unknown","opening_hours":"...","address":"...",
"special_instructions":"...","cost":"..."}]}.
name, description and geo_coordinate are required. Use real places with accurate coordinates.
When the query ends with "return N results", return exactly N places.`

// PlannerPrompt instructs the model to build itinerary options.
const PlannerPrompt = `You plan trips from a set of points of interest and requirements.
The input is JSON: {"poi":[...],"requirements":[...],"options":[...]} where options, if present, is the previous plan to revise.
Honor must_have requirements, respect avoid requirements and weigh preferred ones.
Reply with JSON only: {"options":[{"overall_cost":"...","general_notes":"...","days":[{"highlight":"...","lodging":"...",
"blocks":[{"time":"...","description":"...","pois":[...],"transportation":{"duration":"...","method":"...","cost":0}}]}]}]}.`
